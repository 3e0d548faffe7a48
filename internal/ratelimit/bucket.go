// Package ratelimit throttles API clients: a token bucket per key smooths
// bursts, and an optional sliding window caps usage per day.
package ratelimit

import (
	"sync"
	"time"
)

// Bucket is a token bucket. Safe for concurrent use.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	max        float64
	refillRate float64 // tokens per second
	last       time.Time
	now        func() time.Time
}

// NewBucket creates a full bucket.
func NewBucket(burst, refillPerSecond float64) *Bucket {
	return newBucketAt(burst, refillPerSecond, time.Now)
}

func newBucketAt(burst, refillPerSecond float64, now func() time.Time) *Bucket {
	return &Bucket{tokens: burst, max: burst, refillRate: refillPerSecond, last: now(), now: now}
}

// refill must be called with mu held.
func (b *Bucket) refill() {
	t := b.now()
	b.tokens = min(b.max, b.tokens+t.Sub(b.last).Seconds()*b.refillRate)
	b.last = t
}

// Allow consumes a token if one is available.
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Check reports whether a token is available without consuming it.
// Callers combining several limits hold their own lock across Check and
// Consume.
func (b *Bucket) Check() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens >= 1
}

// Consume takes a token if one is available.
func (b *Bucket) Consume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	if b.tokens >= 1 {
		b.tokens--
	}
}

// Available returns the current token count.
func (b *Bucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

// IsFull reports whether the bucket has refilled completely.
func (b *Bucket) IsFull() bool {
	return b.Available() >= b.max
}
