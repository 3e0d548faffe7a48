// Package warmup brings the directory online at startup: it restores the
// last persisted snapshot, then rebuilds it from the publisher.
package warmup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyellow/vyatsu-schedule/internal/logger"
)

// Task names accepted by ParseTasks.
const (
	TaskRestore = "restore"
	TaskRefresh = "refresh"
)

// DefaultTasks restores first so queries are served while refreshing.
var DefaultTasks = []string{TaskRestore, TaskRefresh}

// Directory is the part of *directory.Directory used here.
type Directory interface {
	Restore(ctx context.Context) error
	Refresh(ctx context.Context) error
	Ready() bool
}

// Recorder receives task outcomes. *metrics.Metrics implements it.
type Recorder interface {
	RecordWarmupTask(task, status string)
	RecordWarmupDuration(d time.Duration)
}

// Options configures warmup behavior
type Options struct {
	Tasks     []string // defaults to DefaultTasks
	Recorder  Recorder
	Readiness *ReadinessState // marked ready once the directory has a snapshot
}

// Run executes the tasks in order. A failed task does not stop the next
// one; the joined errors are returned.
func Run(ctx context.Context, dir Directory, log *logger.Logger, opts Options) error {
	tasks := opts.Tasks
	if len(tasks) == 0 {
		tasks = DefaultTasks
	}
	start := time.Now()

	var errs []error
	for _, task := range tasks {
		if ctx.Err() != nil {
			return fmt.Errorf("warmup canceled: %w", ctx.Err())
		}

		var err error
		switch task {
		case TaskRestore:
			err = dir.Restore(ctx)
		case TaskRefresh:
			err = dir.Refresh(ctx)
		default:
			log.WithField("task", task).Warn("Unknown warmup task, skipping")
			continue
		}

		status := "success"
		if err != nil {
			status = "error"
			errs = append(errs, fmt.Errorf("%s: %w", task, err))
			log.WithError(err).WithField("task", task).Warn("Warmup task failed")
		}
		if opts.Recorder != nil {
			opts.Recorder.RecordWarmupTask(task, status)
		}
		if dir.Ready() && opts.Readiness != nil {
			opts.Readiness.MarkReady()
		}
	}

	duration := time.Since(start)
	if opts.Recorder != nil {
		opts.Recorder.RecordWarmupDuration(duration)
	}
	log.WithField("duration", duration).
		WithField("ready", dir.Ready()).
		Info("Warmup complete")
	return errors.Join(errs...)
}

// RunInBackground executes Run asynchronously and logs the outcome.
//
//nolint:contextcheck // detached from the request that triggered startup
func RunInBackground(_ context.Context, dir Directory, log *logger.Logger, opts Options) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in background warmup")
			}
		}()

		log.WithField("tasks", opts.Tasks).Info("Starting background warmup")
		if err := Run(context.Background(), dir, log, opts); err != nil {
			log.WithError(err).Warn("Background warmup finished with errors")
		}
	}()
}

// ParseTasks converts a comma-separated string to a task list
func ParseTasks(tasks string) []string {
	if tasks == "" {
		return []string{}
	}

	var result []string
	for _, m := range strings.Split(tasks, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			result = append(result, m)
		}
	}
	return result
}
