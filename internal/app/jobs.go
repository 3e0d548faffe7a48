package app

import (
	"context"
	"time"

	"github.com/garyellow/vyatsu-schedule/internal/config"
	"github.com/garyellow/vyatsu-schedule/internal/warmup"
)

// startBackgroundJobs starts warmup and the periodic directory refresh.
// All jobs stop when ctx is canceled; Run waits for them through a.wg.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.runWarmup(ctx)
	})
	a.wg.Go(func() {
		a.refreshLoop(ctx)
	})
}

func (a *Application) runWarmup(ctx context.Context) {
	err := warmup.Run(ctx, a.directory, a.logger, warmup.Options{
		Recorder:  a.metrics,
		Readiness: a.readinessState,
	})
	if err != nil {
		a.logger.WithError(err).Warn("Warmup finished with errors")
	}
}

// refreshLoop rebuilds the directory on a fixed interval. A failed refresh
// keeps the previous snapshot.
func (a *Application) refreshLoop(ctx context.Context) {
	interval := a.cfg.DirectoryRefreshInterval
	if interval <= 0 {
		interval = config.DirectoryRefresh
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refreshDirectory(ctx)
		}
	}
}

func (a *Application) refreshDirectory(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, config.DirectoryLoad)
	defer cancel()

	start := time.Now()
	a.logger.Info("Starting directory refresh...")
	if err := a.directory.Refresh(refreshCtx); err != nil {
		a.logger.WithError(err).Error("Directory refresh failed")
		return
	}
	a.readinessState.MarkReady()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Directory refresh complete")
}
