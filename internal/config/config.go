// Package config provides application configuration management.
// It loads settings from environment variables (optionally seeded from a
// .env file) and provides defaults for the server, CLI and background jobs.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Europe/Kirov must resolve in distroless images
	"unicode/utf8"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	ServerName      string
	Timezone        string

	// Data Configuration
	DataDir  string // SQLite database and local page images live here
	ImageDir string // Local image store directory (default: <DataDir>/images)

	// Publisher Configuration
	BaseURL          string // https://www.vyatsu.ru
	TeacherIndexPath string // department period listing
	StudentIndexPath string // group period listing
	DefaultLevel     string // education level letter appended to bare group abbreviations

	// Scraper Configuration
	ScraperTimeout      time.Duration
	ScraperMaxRetries   int
	ScraperRetryInitial time.Duration
	ScraperMinDelay     time.Duration
	ScraperWorkers      int
	BreakerTimeout      time.Duration

	// Background Jobs
	DirectoryRefreshInterval time.Duration

	// Sentiment Configuration
	SentimentProviders []string // ordered provider names: "openai", "gemini"
	OpenAIAPIKey       string
	OpenAIBaseURL      string // empty = api.openai.com; any OpenAI-compatible endpoint works
	OpenAIModel        string
	GeminiAPIKey       string
	GeminiModel        string

	// R2 Image Store Configuration
	R2Enabled         bool
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string // public bucket URL prefix returned as image reference

	// Sentry Configuration
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack Configuration
	BetterStackToken    string
	BetterStackEndpoint string

	// API Rate Limits
	APIRateBurst       float64 // requests a client may send back to back
	APIRateRefill      float64 // requests per second per client
	FeedbackDailyLimit int     // feedback messages per user per rolling day

	// Metrics Authentication
	MetricsUsername string
	MetricsPassword string // empty = open /metrics and disabled admin API
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	dataDir := getEnv(EnvDataDir, getDefaultDataDir())

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		ServerName:      getEnv(EnvServerName, ""),
		Timezone:        getEnv(EnvTimezone, "Europe/Kirov"),

		DataDir:  dataDir,
		ImageDir: getEnv(EnvImageDir, filepath.Join(dataDir, "images")),

		BaseURL:          strings.TrimRight(getEnv(EnvBaseURL, "https://www.vyatsu.ru"), "/"),
		TeacherIndexPath: getEnv(EnvTeacherIndexPath, "/studentu-1/spravochnaya-informatsiya/teacher.html"),
		StudentIndexPath: getEnv(EnvStudentIndexPath, "/studentu-1/spravochnaya-informatsiya/raspisanie-zanyatiy-dlya-studentov.html"),
		DefaultLevel:     getEnv(EnvDefaultLevel, "б"),

		ScraperTimeout:      getDurationEnv(EnvScraperTimeout, ScraperRequest),
		ScraperMaxRetries:   getIntEnv(EnvScraperMaxRetries, 3),
		ScraperRetryInitial: getDurationEnv(EnvScraperRetryInitial, ScraperRetryInitial),
		ScraperMinDelay:     getDurationEnv(EnvScraperMinDelay, ScraperRateLimit),
		ScraperWorkers:      getIntEnv(EnvScraperWorkers, 4),
		BreakerTimeout:      getDurationEnv(EnvBreakerTimeout, BreakerOpen),

		DirectoryRefreshInterval: getDurationEnv(EnvDirectoryRefreshInterval, DirectoryRefresh),

		SentimentProviders: getListEnv(EnvSentimentProviders, []string{"gemini", "openai"}),
		OpenAIAPIKey:       getEnv(EnvOpenAIAPIKey, ""),
		OpenAIBaseURL:      getEnv(EnvOpenAIBaseURL, ""),
		OpenAIModel:        getEnv(EnvOpenAIModel, "gpt-4o-mini"),
		GeminiAPIKey:       getEnv(EnvGeminiAPIKey, ""),
		GeminiModel:        getEnv(EnvGeminiModel, "gemini-2.5-flash-lite"),

		R2Enabled:         getBoolEnv(EnvR2Enabled, false),
		R2AccountID:       getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),
		R2PublicURL:       strings.TrimRight(getEnv(EnvR2PublicURL, ""), "/"),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		APIRateBurst:       getFloatEnv(EnvAPIRateBurst, 20),
		APIRateRefill:      getFloatEnv(EnvAPIRateRefill, 2),
		FeedbackDailyLimit: getIntEnv(EnvFeedbackDailyLimit, 20),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("BASE_URL must be an absolute URL, got %q", c.BaseURL))
	}
	if !strings.HasPrefix(c.TeacherIndexPath, "/") || !strings.HasPrefix(c.StudentIndexPath, "/") {
		errs = append(errs, errors.New("index paths must start with /"))
	}
	if utf8.RuneCountInString(c.DefaultLevel) != 1 || !strings.ContainsAny(c.DefaultLevel, "бсма") {
		errs = append(errs, fmt.Errorf("DEFAULT_LEVEL must be one of б, с, м, а, got %q", c.DefaultLevel))
	}
	if c.ScraperTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_TIMEOUT must be positive, got %v", c.ScraperTimeout))
	}
	if c.ScraperMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_MAX_RETRIES cannot be negative, got %d", c.ScraperMaxRetries))
	}
	if c.ScraperWorkers <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_WORKERS must be positive, got %d", c.ScraperWorkers))
	}
	if c.DirectoryRefreshInterval < time.Minute {
		errs = append(errs, fmt.Errorf("DIRECTORY_REFRESH_INTERVAL must be at least 1m, got %v", c.DirectoryRefreshInterval))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	if c.R2Enabled {
		if c.R2AccountID == "" || c.R2AccessKeyID == "" || c.R2SecretAccessKey == "" || c.R2BucketName == "" {
			errs = append(errs, errors.New("R2 is enabled but account, credentials or bucket is missing"))
		}
	}
	if c.APIRateBurst < 1 || c.APIRateRefill <= 0 {
		errs = append(errs, fmt.Errorf("API rate limit needs burst >= 1 and positive refill, got %v/%v", c.APIRateBurst, c.APIRateRefill))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("SENTRY_SAMPLE_RATE must be within [0,1], got %v", c.SentrySampleRate))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "vyatsu.db")
}

// TeacherIndexURL returns the absolute department index URL.
func (c *Config) TeacherIndexURL() string {
	return c.BaseURL + c.TeacherIndexPath
}

// StudentIndexURL returns the absolute group index URL.
func (c *Config) StudentIndexURL() string {
	return c.BaseURL + c.StudentIndexPath
}

// Location returns the configured time zone, falling back to UTC+3 (Kirov)
// when the zone database is unavailable.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("MSK", 3*60*60)
}

// DefaultLevelRune returns DefaultLevel as a rune.
func (c *Config) DefaultLevelRune() rune {
	r, _ := utf8.DecodeRuneInString(c.DefaultLevel)
	return r
}

// HasSentimentProvider returns true if at least one LLM provider is configured.
func (c *Config) HasSentimentProvider() bool {
	return c.GeminiAPIKey != "" || c.OpenAIAPIKey != ""
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping empty items.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
