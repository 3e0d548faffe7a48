// Package main prebuilds the schedule directory and persists it to the
// configured stores (SQLite and, when enabled, R2) so servers can restore it
// on startup instead of crawling the site.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/garyellow/vyatsu-schedule/internal/config"
	"github.com/garyellow/vyatsu-schedule/internal/directory"
	"github.com/garyellow/vyatsu-schedule/internal/logger"
	"github.com/garyellow/vyatsu-schedule/internal/r2client"
	"github.com/garyellow/vyatsu-schedule/internal/scraper"
	"github.com/garyellow/vyatsu-schedule/internal/scraper/vyatsu"
	"github.com/garyellow/vyatsu-schedule/internal/storage"
	"github.com/garyellow/vyatsu-schedule/internal/warmup"
)

// CLI flags
var (
	tasksFlag   = flag.String("tasks", warmup.TaskRefresh, "Comma-separated warmup tasks (restore,refresh)")
	workersFlag = flag.Int("workers", 0, "Concurrent department fetches (0 = use config default)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting warmup tool")

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("Warmup failed")
		fmt.Fprintf(os.Stderr, "\n❌ Warmup failed: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.DirectoryLoad)
	defer cancel()

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() { _ = db.Close() }()

	var store directory.Store = db
	if cfg.R2Enabled {
		r2, err := r2client.New(ctx, r2client.Config{
			Endpoint:    r2client.EndpointFor(cfg.R2AccountID),
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2BucketName,
			PublicURL:   cfg.R2PublicURL,
		})
		if err != nil {
			return fmt.Errorf("r2: %w", err)
		}
		store = directory.Tiered(db, directory.NewObjectStore(r2, directory.DefaultObjectKey))
	}

	workers := *workersFlag
	if workers <= 0 {
		workers = cfg.ScraperWorkers
	}
	log.WithField("workers", workers).Info("Worker pool size")

	client := scraper.NewClient(scraper.Options{
		Timeout:        cfg.ScraperTimeout,
		MaxRetries:     cfg.ScraperMaxRetries,
		RetryInitial:   cfg.ScraperRetryInitial,
		MinDelay:       cfg.ScraperMinDelay,
		Burst:          workers,
		BreakerTimeout: cfg.BreakerTimeout,
	})
	loader, err := vyatsu.NewLoader(client, vyatsu.LoaderConfig{
		BaseURL:    cfg.BaseURL,
		TeacherURL: cfg.TeacherIndexURL(),
		StudentURL: cfg.StudentIndexURL(),
		Workers:    workers,
	}, log)
	if err != nil {
		return err
	}
	dir := directory.New(loader, directory.Options{Store: store, Logger: log})

	tasks := warmup.ParseTasks(*tasksFlag)
	if len(tasks) == 0 {
		fmt.Println("⏭️  No tasks to run, skipping")
		return nil
	}

	start := time.Now()
	if err := warmup.Run(ctx, dir, log, warmup.Options{Tasks: tasks}); err != nil {
		return err
	}
	snap, err := dir.Snapshot()
	if err != nil {
		return err
	}
	fmt.Println(summary(snap, time.Since(start)))
	return nil
}

func summary(snap *directory.Snapshot, elapsed time.Duration) string {
	groups, instructors, periods := snap.Stats()
	return fmt.Sprintf("\n✅ Directory ready: %d groups, %d instructors, %d documents (%d departments)\nTotal time: %v",
		groups, instructors, periods, len(snap.Departments()), elapsed.Round(time.Second))
}
