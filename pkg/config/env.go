package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPostgresDSN = "POSTGRES_DSN"

	EnvStoreConnTimeout = "STORE_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvInstanceID = "INSTANCE_ID"

	EnvSlotStoreBackend = "SLOT_STORE_BACKEND"
	EnvLedgerBackend    = "LEDGER_BACKEND"

	EnvReleaseMaxAttempts       = "RELEASE_MAX_ATTEMPTS"
	EnvReleaseBackoff           = "RELEASE_BACKOFF"
	EnvEnforceStatusTransitions = "ENFORCE_STATUS_TRANSITIONS"

	EnvEventsKafkaEnabled    = "EVENTS_KAFKA_ENABLED"
	EnvEventsTopic           = "EVENTS_TOPIC"
	EnvEventSubscriberBuffer = "EVENT_SUBSCRIBER_BUFFER"
	EnvEventKeepAlive        = "EVENT_KEEPALIVE"

	EnvRateLimitRPS   = "RATE_LIMIT_RPS"
	EnvRateLimitBurst = "RATE_LIMIT_BURST"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSeedDays  = "SEED_DAYS"
	EnvSeedTimes = "SEED_TIMES"
)
