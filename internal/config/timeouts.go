package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. Requests are small query strings.
	HTTPRead = 10 * time.Second

	// HTTPWrite covers a cold schedule query: directory lookup, document
	// fetch with retries, and a possible page render.
	HTTPWrite = 90 * time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second

	// QueryProcessing bounds a single schedule query end to end.
	QueryProcessing = 75 * time.Second
)

// Scraper timeouts
const (
	// ScraperRequest is the timeout for a single HTTP request to vyatsu.ru.
	ScraperRequest = 20 * time.Second

	// ScraperRetryInitial is the initial delay before retrying a failed request.
	// Uses exponential backoff: 1s -> 2s -> 4s
	ScraperRetryInitial = 1 * time.Second

	// ScraperRateLimit is the minimum delay between consecutive scraping requests.
	ScraperRateLimit = 200 * time.Millisecond

	// BreakerOpen is how long the publisher circuit stays open before probing.
	BreakerOpen = 30 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 10 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// DirectoryRefresh is how often the group/instructor directory is rebuilt.
	// Periods are published a few times per semester.
	DirectoryRefresh = 6 * time.Hour

	// DirectoryLoad bounds one full directory rebuild, including the
	// per-department instructor fan-out.
	DirectoryLoad = 5 * time.Minute

	// SentimentClassify bounds a single feedback classification call.
	SentimentClassify = 15 * time.Second

	// RateLimiterCleanup is how often idle per-client limiters are dropped.
	RateLimiterCleanup = 5 * time.Minute

	// ReadinessCheck bounds the database ping of /readyz.
	ReadinessCheck = 3 * time.Second
)

// GracefulShutdown allows in-flight requests to complete before forceful termination.
const GracefulShutdown = 30 * time.Second
