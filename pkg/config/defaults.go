package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "roomstay"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Lock TTL is deliberately short: it bounds how long a crashed holder can
	// block other writers. The atomic acquire path is the correctness
	// mechanism; the sweeper is only housekeeping.
	DefaultLockTTL           = 5 * time.Second
	DefaultLockRetryAttempts = 5
	DefaultLockRetryBackoff  = 100 * time.Millisecond

	// Hold TTL is much longer than the lock TTL: it bounds how much capacity
	// an abandoned client can pin before the sweeper reclaims it.
	DefaultHoldTTL = 20 * time.Minute

	DefaultSweepInterval  = 30 * time.Second
	DefaultSweepBatchSize = 100

	DefaultCatalogBaseURL = "http://localhost:8081"
)
