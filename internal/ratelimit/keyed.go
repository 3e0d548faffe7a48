package ratelimit

import (
	"sync"
	"time"
)

// Recorder receives dropped requests. *metrics.Metrics implements it.
type Recorder interface {
	RecordRateLimiterDrop(limiter string)
}

// Config configures a Keyed limiter.
type Config struct {
	Name       string  // metrics label, e.g. "api" or "feedback"
	Burst      float64 // bucket capacity per key
	RefillRate float64 // tokens per second per key

	// Optional rolling quota per key; zero disables it.
	WindowLimit int
	WindowSize  time.Duration // default 24h

	CleanupPeriod time.Duration // default 5m
	Recorder      Recorder
}

// Keyed tracks limits per key (client IP, user ID). Idle keys are
// dropped periodically.
type Keyed struct {
	cfg Config
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]*entry

	stopOnce sync.Once
	stop     chan struct{}
}

type entry struct {
	mu     sync.Mutex // covers Check and Consume across both layers
	bucket *Bucket
	window *Window
}

// NewKeyed starts a limiter and its cleanup goroutine. Call Stop when done.
func NewKeyed(cfg Config) *Keyed {
	return newKeyedAt(cfg, time.Now)
}

func newKeyedAt(cfg Config, now func() time.Time) *Keyed {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 24 * time.Hour
	}
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}
	k := &Keyed{
		cfg:     cfg,
		now:     now,
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
	}
	go k.cleanupLoop()
	return k
}

// Allow consumes from key's bucket and window when both have room.
// An empty key is never limited.
func (k *Keyed) Allow(key string) bool {
	if key == "" {
		return true
	}
	e := k.entry(key)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.window.Check() || !e.bucket.Check() {
		if k.cfg.Recorder != nil {
			k.cfg.Recorder.RecordRateLimiterDrop(k.cfg.Name)
		}
		return false
	}
	e.window.Consume()
	e.bucket.Consume()
	return true
}

func (k *Keyed) entry(key string) *entry {
	k.mu.RLock()
	e, ok := k.entries[key]
	k.mu.RUnlock()
	if ok {
		return e
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if e, ok = k.entries[key]; ok {
		return e
	}
	e = &entry{
		bucket: newBucketAt(k.cfg.Burst, k.cfg.RefillRate, k.now),
		window: newWindowAt(k.cfg.WindowLimit, k.cfg.WindowSize, k.now),
	}
	k.entries[key] = e
	return e
}

// Remaining returns the rolling quota left for key, or -1 when no
// window is configured.
func (k *Keyed) Remaining(key string) int {
	if k.cfg.WindowLimit <= 0 {
		return -1
	}
	k.mu.RLock()
	e, ok := k.entries[key]
	k.mu.RUnlock()
	if !ok {
		return k.cfg.WindowLimit
	}
	return e.window.Remaining()
}

// Active returns the number of tracked keys.
func (k *Keyed) Active() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.entries)
}

// sweep drops keys whose bucket is full and window is idle.
func (k *Keyed) sweep() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for key, e := range k.entries {
		if e.bucket.IsFull() && e.window.Idle() {
			delete(k.entries, key)
		}
	}
}

func (k *Keyed) cleanupLoop() {
	ticker := time.NewTicker(k.cfg.CleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-k.stop:
			return
		case <-ticker.C:
			k.sweep()
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (k *Keyed) Stop() {
	k.stopOnce.Do(func() { close(k.stop) })
}
