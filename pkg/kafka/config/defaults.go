package kafka_config

import "time"

const (
	DefaultKafkaBrokers  = "localhost:9092"
	DefaultKafkaClientID = "expertconnect"

	// Slot events are advisory, so the producer favours latency over durability.
	DefaultProducerMaxAttempts  = 2
	DefaultProducerBatchTimeout = 5 * time.Millisecond
	DefaultProducerRequireAcks  = 1 // leader only
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	// Relays start from the newest offset: events published before an instance
	// joined are never replayed to it.
	DefaultConsumerStartOffset       = -1
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 1 * 1024 * 1024 // 1MB
	DefaultConsumerMaxWait           = 250 * time.Millisecond
	DefaultConsumerCommitInterval    = 1 * time.Second
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerFetchBackoff      = 1 * time.Second
)
