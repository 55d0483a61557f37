package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	// Producer defaults. Acks from all replicas: a persisted slot event
	// must survive broker failover before the relay marks it delivered.
	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"

	// Consumer defaults. Oldest start offset: ledger services must see
	// every forwarded event, including ones published before they joined.
	DefaultConsumerStartOffset       = -2
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 10 * 1024 * 1024 // 10MB
	DefaultConsumerMaxWait           = 500 * time.Millisecond
	DefaultConsumerCommitInterval    = 1 * time.Second
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerRebalanceTimeout  = 60 * time.Second
	DefaultConsumerMaxRetries        = 3
)
