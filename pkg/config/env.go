package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultLockTTL = "DEFAULT_LOCK_TTL"
	EnvMaxLockTTL     = "MAX_LOCK_TTL"

	EnvSweepInterval  = "SWEEP_INTERVAL"
	EnvSweepBatchSize = "SWEEP_BATCH_SIZE"

	EnvStoreRetryAttempts = "STORE_RETRY_ATTEMPTS"
	EnvStoreRetryBackoff  = "STORE_RETRY_BACKOFF"

	EnvSlotEventsTopic    = "SLOT_EVENTS_TOPIC"
	EnvSlotEventsDLQTopic = "SLOT_EVENTS_DLQ_TOPIC"
)
