package scraper

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket that spaces requests to the publisher.
// Burst tokens are available immediately; afterwards one token is added
// every minDelay.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a limiter allowing burst concurrent requests and a
// sustained rate of one request per minDelay.
func NewRateLimiter(burst int, minDelay time.Duration) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rate := float64(burst)
	if minDelay > 0 {
		rate = 1 / minDelay.Seconds()
	}
	return &RateLimiter{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: time.Now(),
	}
}

// reserve takes a token if one is available, otherwise returns how long the
// caller must wait for the next one.
func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.tokens += now.Sub(rl.lastRefill).Seconds() * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if rl.tokens >= 1.0 {
		rl.tokens--
		return 0
	}
	return time.Duration((1.0 - rl.tokens) / rl.refillRate * float64(time.Second))
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait := rl.reserve()
		if wait == 0 {
			return nil
		}
		if err := Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Available returns the current number of tokens, for tests and metrics.
func (rl *RateLimiter) Available() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	tokens := rl.tokens + time.Since(rl.lastRefill).Seconds()*rl.refillRate
	if tokens > rl.maxTokens {
		tokens = rl.maxTokens
	}
	return tokens
}
