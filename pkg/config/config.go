package config

import (
	"expertconnect/pkg/client"
	"expertconnect/pkg/logger"
	"expertconnect/pkg/model"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresDSN string

	// StoreConnTimeout bounds connecting to Redis and Postgres and the
	// Postgres schema bootstrap.
	StoreConnTimeout time.Duration

	Port       string
	InstanceID string

	SlotStoreBackend string
	LedgerBackend    string

	ReleaseMaxAttempts       int
	ReleaseBackoff           time.Duration
	EnforceStatusTransitions bool

	EventsKafkaEnabled    bool
	EventsTopic           string
	EventSubscriberBuffer int
	EventKeepAlive        time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	SeedDays  int
	SeedTimes []string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		PostgresDSN: getEnvStr(EnvPostgresDSN, DefaultPostgresDSN),

		StoreConnTimeout: getEnvDuration(EnvStoreConnTimeout, DefaultStoreConnTimeout),

		Port:       getEnvStr(EnvPort, DefaultPort),
		InstanceID: getEnvStr(EnvInstanceID, serviceName+"-"+uuid.NewString()[:8]),

		SlotStoreBackend: strings.ToLower(getEnvStr(EnvSlotStoreBackend, BackendMongo)),
		LedgerBackend:    strings.ToLower(getEnvStr(EnvLedgerBackend, BackendMongo)),

		ReleaseMaxAttempts:       getEnvNum(EnvReleaseMaxAttempts, DefaultReleaseMaxAttempts),
		ReleaseBackoff:           getEnvDuration(EnvReleaseBackoff, DefaultReleaseBackoff),
		EnforceStatusTransitions: getEnvBool(EnvEnforceStatusTransitions, DefaultEnforceStatusTransitions),

		EventsKafkaEnabled:    getEnvBool(EnvEventsKafkaEnabled, DefaultEventsKafkaEnabled),
		EventsTopic:           getEnvStr(EnvEventsTopic, DefaultEventsTopic),
		EventSubscriberBuffer: getEnvNum(EnvEventSubscriberBuffer, DefaultEventSubscriberBuffer),
		EventKeepAlive:        getEnvDuration(EnvEventKeepAlive, DefaultEventKeepAlive),

		RateLimitRPS:   getEnvFloat(EnvRateLimitRPS, DefaultRateLimitRPS),
		RateLimitBurst: getEnvNum(EnvRateLimitBurst, DefaultRateLimitBurst),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		SeedDays:  getEnvNum(EnvSeedDays, DefaultSeedDays),
		SeedTimes: splitList(getEnvStr(EnvSeedTimes, DefaultSeedTimes)),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.StoreConnTimeout)
}

func (cfg *Config) SetPostgres() {
	cfg.Client.SetPostgres(cfg.Log, cfg.PostgresDSN, cfg.StoreConnTimeout)
}

// NeedsMongo reports whether any configured backend lives in MongoDB.
func (cfg *Config) NeedsMongo() bool {
	return cfg.SlotStoreBackend == BackendMongo || cfg.LedgerBackend == BackendMongo
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.SlotStoreBackend {
	case BackendMemory, BackendMongo, BackendRedis, BackendPostgres:
	default:
		errors = append(errors, fmt.Sprintf("SlotStoreBackend must be one of [memory, mongo, redis, postgres], got: %s", cfg.SlotStoreBackend))
	}
	switch cfg.LedgerBackend {
	case BackendMemory, BackendMongo:
	default:
		errors = append(errors, fmt.Sprintf("LedgerBackend must be one of [memory, mongo], got: %s", cfg.LedgerBackend))
	}
	if cfg.SlotStoreBackend == BackendMemory && cfg.LedgerBackend != BackendMemory {
		errors = append(errors, "SlotStoreBackend=memory requires LedgerBackend=memory, slot state would not survive a restart while bookings do")
	}

	if cfg.NeedsMongo() {
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
	}
	if cfg.SlotStoreBackend == BackendRedis && cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty when SlotStoreBackend=redis")
	}
	if cfg.SlotStoreBackend == BackendPostgres && !strings.HasPrefix(cfg.PostgresDSN, "postgres") {
		errors = append(errors, "PostgresDSN must start with 'postgres://' or 'postgresql://'")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.StoreConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("StoreConnTimeout must be positive, got: %s", cfg.StoreConnTimeout))
	}
	if cfg.ReleaseMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("ReleaseMaxAttempts must be positive, got: %d", cfg.ReleaseMaxAttempts))
	}
	if cfg.ReleaseBackoff < 0 {
		errors = append(errors, fmt.Sprintf("ReleaseBackoff cannot be negative, got: %s", cfg.ReleaseBackoff))
	}
	if cfg.EventsKafkaEnabled && cfg.EventsTopic == "" {
		errors = append(errors, "EventsTopic cannot be empty when EventsKafkaEnabled is set")
	}
	if cfg.EventSubscriberBuffer <= 0 {
		errors = append(errors, fmt.Sprintf("EventSubscriberBuffer must be positive, got: %d", cfg.EventSubscriberBuffer))
	}
	if cfg.EventKeepAlive <= 0 {
		errors = append(errors, fmt.Sprintf("EventKeepAlive must be positive, got: %s", cfg.EventKeepAlive))
	}
	if cfg.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRPS must be positive, got: %v", cfg.RateLimitRPS))
	}
	if cfg.RateLimitBurst <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitBurst must be positive, got: %d", cfg.RateLimitBurst))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.SeedDays <= 0 {
		errors = append(errors, fmt.Sprintf("SeedDays must be positive, got: %d", cfg.SeedDays))
	}
	if len(cfg.SeedTimes) == 0 {
		errors = append(errors, "SeedTimes cannot be empty")
	}
	for _, t := range cfg.SeedTimes {
		if !model.TimeLabelRegex.MatchString(t) {
			errors = append(errors, fmt.Sprintf("SeedTimes entries must be in HH:MM format (00:00-23:59), got: %s", t))
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
		"postgres_dsn", redactURI(cfg.PostgresDSN),
		"store_conn_timeout", cfg.StoreConnTimeout,
		"port", cfg.Port,
		"instance_id", cfg.InstanceID,
		"slot_store_backend", cfg.SlotStoreBackend,
		"ledger_backend", cfg.LedgerBackend,
		"release_max_attempts", cfg.ReleaseMaxAttempts,
		"release_backoff", cfg.ReleaseBackoff,
		"enforce_status_transitions", cfg.EnforceStatusTransitions,
		"events_kafka_enabled", cfg.EventsKafkaEnabled,
		"events_topic", cfg.EventsTopic,
		"event_subscriber_buffer", cfg.EventSubscriberBuffer,
		"event_keepalive", cfg.EventKeepAlive,
		"rate_limit_rps", cfg.RateLimitRPS,
		"rate_limit_burst", cfg.RateLimitBurst,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"seed_days", cfg.SeedDays,
		"seed_times", cfg.SeedTimes,
	)
}

func redactURI(uri string) string {
	credentialRegex := regexp.MustCompile(`([a-z+]+://)[^:/@]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
