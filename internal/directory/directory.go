package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
	"github.com/garyellow/vyatsu-schedule/internal/logger"
)

// Loader builds a complete snapshot from the publisher.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Store persists the last good snapshot so a restart can serve queries
// before the first refresh finishes.
type Store interface {
	SaveDirectory(ctx context.Context, blob []byte, loadedAt time.Time) error
	LoadDirectory(ctx context.Context) ([]byte, error)
}

// Recorder receives refresh observations. *metrics.Metrics implements it.
type Recorder interface {
	RecordDirectoryRefresh(status string, duration time.Duration)
	SetDirectorySize(groups, instructors, periods int)
}

// Options configures a Directory. All fields are optional.
type Options struct {
	Store    Store
	Recorder Recorder
	Logger   *logger.Logger
}

// Directory serves the current snapshot to readers without locking.
// Refreshes are serialized and replace the snapshot atomically; a failed
// refresh leaves the previous snapshot in place.
type Directory struct {
	loader   Loader
	store    Store
	recorder Recorder
	log      *logger.Logger

	current atomic.Pointer[Snapshot]
	mu      sync.Mutex // serializes Refresh
}

// New creates an empty directory. Call Restore and/or Refresh before use.
func New(loader Loader, opts Options) *Directory {
	log := opts.Logger
	if log == nil {
		log = logger.New("info")
	}
	return &Directory{
		loader:   loader,
		store:    opts.Store,
		recorder: opts.Recorder,
		log:      log.WithModule("directory"),
	}
}

// Snapshot returns the current snapshot, or ErrDirectoryUnavailable if none
// has been loaded yet.
func (d *Directory) Snapshot() (*Snapshot, error) {
	s := d.current.Load()
	if s == nil {
		return nil, fmt.Errorf("%w: not loaded yet", domerrors.ErrDirectoryUnavailable)
	}
	return s, nil
}

// Ready reports whether a snapshot is available.
func (d *Directory) Ready() bool {
	return d.current.Load() != nil
}

// Refresh rebuilds the directory from the publisher.
func (d *Directory) Refresh(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	snap, err := d.loader.Load(ctx)
	if err == nil {
		err = validate(snap)
	}
	if err != nil {
		d.observe("error", time.Since(start))
		d.log.WithError(err).Warn("Directory refresh failed, keeping previous snapshot")
		return fmt.Errorf("%w: %w", domerrors.ErrDirectoryUnavailable, err)
	}

	d.publish(snap)
	d.observe("success", time.Since(start))

	groups, instructors, periods := snap.Stats()
	d.log.WithFields(map[string]any{
		"groups":      groups,
		"instructors": instructors,
		"periods":     periods,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Directory refreshed")

	if d.store != nil {
		if err := d.save(ctx, snap); err != nil {
			d.log.WithError(err).Warn("Failed to persist directory snapshot")
		}
	}
	return nil
}

// Restore loads the persisted snapshot if no snapshot is published yet.
// A missing snapshot is not an error.
func (d *Directory) Restore(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current.Load() != nil {
		return nil
	}
	blob, err := d.store.LoadDirectory(ctx)
	if errors.Is(err, domerrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load persisted directory: %w", err)
	}
	snap, err := Decode(blob)
	if err != nil {
		return fmt.Errorf("decode persisted directory: %w", err)
	}
	if err := validate(snap); err != nil {
		return fmt.Errorf("persisted directory: %w", err)
	}
	d.publish(snap)
	d.log.WithField("loaded_at", snap.LoadedAt).Info("Directory restored from cache")
	return nil
}

func (d *Directory) publish(snap *Snapshot) {
	d.current.Store(snap)
	if d.recorder != nil {
		d.recorder.SetDirectorySize(snap.Stats())
	}
}

func (d *Directory) save(ctx context.Context, snap *Snapshot) error {
	blob, err := Encode(snap)
	if err != nil {
		return err
	}
	return d.store.SaveDirectory(ctx, blob, snap.LoadedAt)
}

func (d *Directory) observe(status string, elapsed time.Duration) {
	if d.recorder != nil {
		d.recorder.RecordDirectoryRefresh(status, elapsed)
	}
}

// validate rejects snapshots that would make every query fail.
func validate(s *Snapshot) error {
	if s == nil {
		return errors.New("empty snapshot")
	}
	if len(s.Groups) == 0 && len(s.Instructors) == 0 {
		return errors.New("snapshot lists no groups and no instructors")
	}
	return nil
}
