// Package main is a terminal client for the schedule engine. It builds the
// same directory and query pipeline as the server, caching the directory in
// the local database between runs.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyellow/vyatsu-schedule/internal/buildinfo"
	"github.com/garyellow/vyatsu-schedule/internal/config"
	"github.com/garyellow/vyatsu-schedule/internal/directory"
	"github.com/garyellow/vyatsu-schedule/internal/fallback"
	"github.com/garyellow/vyatsu-schedule/internal/logger"
	"github.com/garyellow/vyatsu-schedule/internal/resolver"
	"github.com/garyellow/vyatsu-schedule/internal/schedule"
	"github.com/garyellow/vyatsu-schedule/internal/scraper"
	"github.com/garyellow/vyatsu-schedule/internal/scraper/vyatsu"
	"github.com/garyellow/vyatsu-schedule/internal/storage"
)

var (
	dateFlag    string
	refreshFlag bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "vyatsu-schedule",
	Short: "Look up VyatSU lesson schedules from the terminal",
	Long: `vyatsu-schedule finds the published schedule document of a group or
instructor and prints the lessons for a date, a whole document period,
or just the document link.`,
	SilenceUsage: true,
	Version:      buildinfo.Summary(),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dateFlag, "date", "d", "", "date as dd.mm.yyyy, today or tomorrow (default today)")
	rootCmd.PersistentFlags().BoolVar(&refreshFlag, "refresh", false, "rebuild the directory even when a cached copy exists")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log progress to stderr")

	rootCmd.AddCommand(getCmd, weekCmd, linkCmd, groupsCmd, instructorsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// engine is the query pipeline for one CLI invocation.
type engine struct {
	cfg       *config.Config
	db        *storage.DB
	directory *directory.Directory
	service   *schedule.Service
}

func newEngine(ctx context.Context) (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	level := "error"
	if verboseFlag {
		level = "debug"
	}
	log := logger.NewWithWriter(level, os.Stderr)

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	client := scraper.NewClient(scraper.Options{
		Timeout:        cfg.ScraperTimeout,
		MaxRetries:     cfg.ScraperMaxRetries,
		RetryInitial:   cfg.ScraperRetryInitial,
		MinDelay:       cfg.ScraperMinDelay,
		Burst:          cfg.ScraperWorkers,
		BreakerTimeout: cfg.BreakerTimeout,
	})
	loader, err := vyatsu.NewLoader(client, vyatsu.LoaderConfig{
		BaseURL:    cfg.BaseURL,
		TeacherURL: cfg.TeacherIndexURL(),
		StudentURL: cfg.StudentIndexURL(),
		Workers:    cfg.ScraperWorkers,
	}, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dir := directory.New(loader, directory.Options{Store: db, Logger: log})

	images, err := fallback.NewFileStore(cfg.ImageDir, cfg.ImageDir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	res := resolver.New(cfg.DefaultLevelRune())
	return &engine{
		cfg:       cfg,
		db:        db,
		directory: dir,
		service: schedule.NewService(dir, res, schedule.Options{
			Fetcher: client,
			Imager:  fallback.NewRenderer(images, log),
			Logger:  log,
		}),
	}, nil
}

// load makes a snapshot available: the cached one unless --refresh is set
// or the cache is missing or older than the refresh interval.
func (e *engine) load(ctx context.Context) error {
	if !refreshFlag {
		if err := e.directory.Restore(ctx); err != nil {
			return err
		}
		if snap, err := e.directory.Snapshot(); err == nil &&
			time.Since(snap.LoadedAt) < e.cfg.DirectoryRefreshInterval {
			return nil
		}
	}

	var err error
	runWithSpinner("Loading the schedule directory...", func() {
		loadCtx, cancel := context.WithTimeout(ctx, config.DirectoryLoad)
		defer cancel()
		err = e.directory.Refresh(loadCtx)
	})
	if err != nil && e.directory.Ready() {
		fmt.Fprintln(os.Stderr, warnStyle.Render("Using the cached directory: "+err.Error()))
		return nil
	}
	return err
}

func (e *engine) date() (time.Time, error) {
	return schedule.ParseDate(dateFlag, time.Now().In(e.cfg.Location()))
}

func (e *engine) Close() error {
	return e.db.Close()
}

// withEngine runs fn with a loaded engine and closes it afterwards.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *engine) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	if err := e.load(ctx); err != nil {
		return err
	}
	return fn(ctx, e)
}
