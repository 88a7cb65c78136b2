package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "reserva"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Lock TTLs: callers may request anything in (0, MaxLockTTL]; a zero
	// TTL falls back to the default.
	DefaultDefaultLockTTL = 15 * time.Minute
	DefaultMaxLockTTL     = 24 * time.Hour

	DefaultSweepInterval  = 1 * time.Minute
	DefaultSweepBatchSize = 200

	DefaultStoreRetryAttempts = 3
	DefaultStoreRetryBackoff  = 50 * time.Millisecond

	// Empty topic disables event publishing.
	DefaultSlotEventsTopic    = ""
	DefaultSlotEventsDLQTopic = ""

	DefaultPaginationLimit = 100
)
