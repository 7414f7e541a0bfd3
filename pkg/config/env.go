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

	EnvLockTTL           = "LOCK_TTL"
	EnvLockRetryAttempts = "LOCK_RETRY_ATTEMPTS"
	EnvLockRetryBackoff  = "LOCK_RETRY_BACKOFF"

	EnvHoldTTL = "HOLD_TTL"

	EnvSweepInterval  = "SWEEP_INTERVAL"
	EnvSweepBatchSize = "SWEEP_BATCH_SIZE"

	EnvCatalogBaseURL = "CATALOG_BASE_URL"
)
