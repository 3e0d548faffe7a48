package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "VYATSU_PORT"
	EnvLogLevel        = "VYATSU_LOG_LEVEL"
	EnvShutdownTimeout = "VYATSU_SHUTDOWN_TIMEOUT"
	EnvServerName      = "VYATSU_SERVER_NAME"
	EnvTimezone        = "VYATSU_TIMEZONE"

	// Data
	EnvDataDir  = "VYATSU_DATA_DIR"
	EnvImageDir = "VYATSU_IMAGE_DIR"

	// Publisher site
	EnvBaseURL          = "VYATSU_BASE_URL"
	EnvTeacherIndexPath = "VYATSU_TEACHER_INDEX_PATH"
	EnvStudentIndexPath = "VYATSU_STUDENT_INDEX_PATH"
	EnvDefaultLevel     = "VYATSU_DEFAULT_LEVEL"

	// Scraper
	EnvScraperTimeout      = "VYATSU_SCRAPER_TIMEOUT"
	EnvScraperMaxRetries   = "VYATSU_SCRAPER_MAX_RETRIES"
	EnvScraperRetryInitial = "VYATSU_SCRAPER_RETRY_INITIAL"
	EnvScraperMinDelay     = "VYATSU_SCRAPER_MIN_DELAY"
	EnvScraperWorkers      = "VYATSU_SCRAPER_WORKERS"
	EnvBreakerTimeout      = "VYATSU_BREAKER_TIMEOUT"

	// Background Tasks
	EnvDirectoryRefreshInterval = "VYATSU_DIRECTORY_REFRESH_INTERVAL"

	// Sentiment Feature
	EnvSentimentProviders = "VYATSU_SENTIMENT_PROVIDERS"
	EnvOpenAIAPIKey       = "VYATSU_OPENAI_API_KEY"
	EnvOpenAIBaseURL      = "VYATSU_OPENAI_BASE_URL"
	EnvOpenAIModel        = "VYATSU_OPENAI_MODEL"
	EnvGeminiAPIKey       = "VYATSU_GEMINI_API_KEY"
	EnvGeminiModel        = "VYATSU_GEMINI_MODEL"

	// R2 Image Store Feature
	EnvR2Enabled         = "VYATSU_R2_ENABLED"
	EnvR2AccountID       = "VYATSU_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "VYATSU_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "VYATSU_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "VYATSU_R2_BUCKET_NAME"
	EnvR2PublicURL       = "VYATSU_R2_PUBLIC_URL"

	// Sentry Feature
	EnvSentryDSN         = "VYATSU_SENTRY_DSN"
	EnvSentryEnvironment = "VYATSU_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "VYATSU_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "VYATSU_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "VYATSU_BETTERSTACK_ENDPOINT"

	// API Rate Limits
	EnvAPIRateBurst       = "VYATSU_API_RATE_BURST"
	EnvAPIRateRefill      = "VYATSU_API_RATE_REFILL"
	EnvFeedbackDailyLimit = "VYATSU_FEEDBACK_DAILY_LIMIT"

	// Metrics Auth Feature
	EnvMetricsUsername = "VYATSU_METRICS_USERNAME"
	EnvMetricsPassword = "VYATSU_METRICS_PASSWORD"
)
