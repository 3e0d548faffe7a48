// Package app wires the schedule engine into an HTTP service and manages
// its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/garyellow/vyatsu-schedule/internal/buildinfo"
	"github.com/garyellow/vyatsu-schedule/internal/config"
	"github.com/garyellow/vyatsu-schedule/internal/directory"
	"github.com/garyellow/vyatsu-schedule/internal/fallback"
	"github.com/garyellow/vyatsu-schedule/internal/logger"
	"github.com/garyellow/vyatsu-schedule/internal/metrics"
	"github.com/garyellow/vyatsu-schedule/internal/r2client"
	"github.com/garyellow/vyatsu-schedule/internal/ratelimit"
	"github.com/garyellow/vyatsu-schedule/internal/resolver"
	"github.com/garyellow/vyatsu-schedule/internal/schedule"
	"github.com/garyellow/vyatsu-schedule/internal/scraper"
	"github.com/garyellow/vyatsu-schedule/internal/scraper/vyatsu"
	"github.com/garyellow/vyatsu-schedule/internal/sentiment"
	"github.com/garyellow/vyatsu-schedule/internal/sentry"
	"github.com/garyellow/vyatsu-schedule/internal/storage"
	"github.com/garyellow/vyatsu-schedule/internal/warmup"
)

// pageImagePrefix is the R2 key prefix of rendered page images.
const pageImagePrefix = "pages"

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg        *config.Config
	logger     *logger.Logger
	db         *storage.DB
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	directory  *directory.Directory
	resolver   *resolver.Resolver
	schedule   *schedule.Service
	classifier *sentiment.Chain

	apiLimiter      *ratelimit.Keyed
	feedbackLimiter *ratelimit.Keyed
	readinessState  *warmup.ReadinessState

	imageDir string // served under /images when pages are stored locally
	now      func() time.Time

	router *gin.Engine
	server *http.Server
	wg     sync.WaitGroup // background jobs
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})
	log = log.WithField("service", "vyatsu-schedule")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}
	// Package-level slog.*Context calls pick up request IDs through the
	// context handler.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.Summary()).Info("Initializing application...")

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.SentrySampleRate,
		ServerName:  cfg.ServerName,
	}); err != nil {
		log.WithError(err).Warn("Sentry disabled")
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	client := scraper.NewClient(scraper.Options{
		Timeout:        cfg.ScraperTimeout,
		MaxRetries:     cfg.ScraperMaxRetries,
		RetryInitial:   cfg.ScraperRetryInitial,
		MinDelay:       cfg.ScraperMinDelay,
		Burst:          cfg.ScraperWorkers,
		BreakerTimeout: cfg.BreakerTimeout,
		Recorder:       m,
	})

	var r2 *r2client.Client
	if cfg.R2Enabled {
		r2, err = r2client.New(ctx, r2client.Config{
			Endpoint:    r2client.EndpointFor(cfg.R2AccountID),
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2BucketName,
			PublicURL:   cfg.R2PublicURL,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("r2: %w", err)
		}
		log.WithField("bucket", cfg.R2BucketName).Info("R2 storage enabled")
	}

	loader, err := vyatsu.NewLoader(client, vyatsu.LoaderConfig{
		BaseURL:    cfg.BaseURL,
		TeacherURL: cfg.TeacherIndexURL(),
		StudentURL: cfg.StudentIndexURL(),
		Workers:    cfg.ScraperWorkers,
	}, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("loader: %w", err)
	}

	var store directory.Store = db
	if r2 != nil {
		store = directory.Tiered(db, directory.NewObjectStore(r2, directory.DefaultObjectKey))
	}
	dir := directory.New(loader, directory.Options{Store: store, Recorder: m, Logger: log})

	var (
		images   fallback.ImageStore
		imageDir string
	)
	if r2 != nil && cfg.R2PublicURL != "" {
		images = fallback.NewR2Store(r2, pageImagePrefix)
	} else {
		fs, err := fallback.NewFileStore(cfg.ImageDir, "/images")
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("image store: %w", err)
		}
		images, imageDir = fs, fs.Dir()
	}

	res := resolver.New(cfg.DefaultLevelRune())
	svc := schedule.NewService(dir, res, schedule.Options{
		Fetcher:  client,
		Imager:   fallback.NewRenderer(images, log),
		Recorder: m,
		Logger:   log,
	})

	classifier, err := sentiment.New(ctx, buildSentimentConfig(cfg), m)
	if err != nil {
		log.WithError(err).Warn("Sentiment classification disabled")
		classifier = sentiment.NewChain(nil, sentiment.RetryConfig{}, m)
	}

	app := &Application{
		cfg:        cfg,
		logger:     log,
		db:         db,
		metrics:    m,
		registry:   registry,
		directory:  dir,
		resolver:   res,
		schedule:   svc,
		classifier: classifier,
		apiLimiter: ratelimit.NewKeyed(ratelimit.Config{
			Name:          "api",
			Burst:         cfg.APIRateBurst,
			RefillRate:    cfg.APIRateRefill,
			CleanupPeriod: config.RateLimiterCleanup,
			Recorder:      m,
		}),
		feedbackLimiter: ratelimit.NewKeyed(ratelimit.Config{
			Name:          "feedback",
			Burst:         3,
			RefillRate:    1.0 / 60,
			WindowLimit:   cfg.FeedbackDailyLimit,
			CleanupPeriod: config.RateLimiterCleanup,
			Recorder:      m,
		}),
		readinessState: warmup.NewReadinessState(config.DirectoryLoad),
		imageDir:       imageDir,
		now:            time.Now,
	}

	gin.SetMode(gin.ReleaseMode)
	app.router = app.routes()
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// buildSentimentConfig maps provider names from config; unknown names are
// skipped with a warning.
func buildSentimentConfig(cfg *config.Config) sentiment.Config {
	out := sentiment.Config{
		Gemini: sentiment.ProviderConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel},
		OpenAI: sentiment.ProviderConfig{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL, Model: cfg.OpenAIModel},
		Retry:  sentiment.DefaultRetryConfig(),
	}
	for _, name := range cfg.SentimentProviders {
		switch p := sentiment.Provider(name); p {
		case sentiment.ProviderGemini, sentiment.ProviderOpenAI:
			out.Providers = append(out.Providers, p)
		default:
			slog.Warn("ignoring unknown sentiment provider", "name", name)
		}
	}
	return out
}

// Run starts the HTTP server and background jobs and blocks until
// SIGINT/SIGTERM. Background jobs are stopped and awaited before the
// database is closed.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)

	serverErr := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErr:
		a.logger.WithError(err).Error("HTTP server error")
		runErr = err
	}

	cancel()
	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown stops the HTTP server, then closes resources.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	var errs []error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
		errs = append(errs, err)
	}

	a.logger.Info("Closing resources...")
	a.close()

	sentry.Flush(2 * time.Second)
	a.logger.Info("Shutdown complete")
	return errors.Join(errs...)
}

// close releases everything Initialize acquired except the HTTP server.
func (a *Application) close() {
	if a.classifier != nil {
		if err := a.classifier.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "sentiment").Error("Component close error")
		}
	}
	if a.apiLimiter != nil {
		a.apiLimiter.Stop()
	}
	if a.feedbackLimiter != nil {
		a.feedbackLimiter.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "database").Error("Component close error")
		}
	}
}
