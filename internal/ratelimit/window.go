package ratelimit

import (
	"sync"
	"time"
)

// Window approximates a rolling window with two fixed windows:
//
//	effective = current + previous × (unelapsed share of current window)
//
// A nil *Window allows everything.
type Window struct {
	mu    sync.Mutex
	curr  int
	prev  int
	start time.Time
	size  time.Duration
	limit int
	now   func() time.Time
}

// NewWindow returns nil when limit <= 0.
func NewWindow(limit int, size time.Duration) *Window {
	return newWindowAt(limit, size, time.Now)
}

func newWindowAt(limit int, size time.Duration, now func() time.Time) *Window {
	if limit <= 0 {
		return nil
	}
	return &Window{start: now(), size: size, limit: limit, now: now}
}

// rotate must be called with mu held.
func (w *Window) rotate(t time.Time) {
	elapsed := t.Sub(w.start)
	if elapsed < w.size {
		return
	}
	passed := int(elapsed / w.size)
	if passed == 1 {
		w.prev = w.curr
	} else {
		w.prev = 0
	}
	w.curr = 0
	w.start = w.start.Add(time.Duration(passed) * w.size)
}

// effective must be called with mu held, after rotate.
func (w *Window) effective(t time.Time) float64 {
	overlap := float64(w.size-t.Sub(w.start)) / float64(w.size)
	overlap = max(0, min(1, overlap))
	return float64(w.curr) + float64(w.prev)*overlap
}

// Check reports whether another request fits.
func (w *Window) Check() bool {
	if w == nil {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	t := w.now()
	w.rotate(t)
	return w.effective(t) < float64(w.limit)
}

// Consume counts a request if it fits.
func (w *Window) Consume() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	t := w.now()
	w.rotate(t)
	if w.effective(t) < float64(w.limit) {
		w.curr++
	}
}

// Remaining returns the approximate quota left, or -1 for a nil window.
func (w *Window) Remaining() int {
	if w == nil {
		return -1
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	t := w.now()
	w.rotate(t)
	return max(0, int(float64(w.limit)-w.effective(t)))
}

// Idle reports whether the window holds no usage.
func (w *Window) Idle() bool {
	if w == nil {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rotate(w.now())
	return w.curr == 0 && w.prev == 0
}
