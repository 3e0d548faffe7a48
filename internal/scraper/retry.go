package scraper

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"net"
	"strings"
	"time"
)

// permanentError marks a failure that retrying cannot fix (401/403/404,
// open circuit). RetryWithBackoff returns its cause immediately.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so RetryWithBackoff stops after the current attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryWithBackoff retries a function with exponential backoff and jitter.
// Stops retrying immediately if the error is a permanentError.
//
// maxRetries: maximum number of retry attempts (0 = no retry, just try once)
// initialDelay: initial delay before first retry (e.g., 1s)
//
// Backoff formula: delay = initialDelay * 2^attempt ± 25% jitter
// Example with initialDelay=1s, maxRetries=3:
//
//	attempt 0: immediate (first try)
//	attempt 1: ~1s (0.75s - 1.25s)
//	attempt 2: ~2s (1.5s - 2.5s)
//	attempt 3: ~4s (3s - 5s)
func RetryWithBackoff(ctx context.Context, maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var permErr *permanentError
		if errors.As(err, &permErr) {
			return permErr.Unwrap()
		}

		if attempt == maxRetries {
			break
		}

		if err := Sleep(ctx, backoffDelay(initialDelay, attempt)); err != nil {
			return err
		}
	}

	return lastErr
}

// backoffDelay returns initialDelay * 2^attempt with ±25% jitter.
func backoffDelay(initialDelay time.Duration, attempt int) time.Duration {
	delay := time.Duration(float64(initialDelay) * math.Pow(2, float64(attempt)))

	halfDelay := int64(delay) / 2
	if halfDelay <= 0 {
		halfDelay = 1
	}
	jitterBig, err := rand.Int(rand.Reader, big.NewInt(halfDelay))
	if err != nil {
		jitterBig = big.NewInt(0)
	}
	return delay - delay/4 + time.Duration(jitterBig.Int64())
}

// Sleep waits for the specified duration, respecting context cancellation
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsNetworkError reports whether err looks like a transient transport or
// server-side failure worth retrying.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var permErr *permanentError
	if errors.As(err, &permErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"eof",
		"server error",
		"rate limited",
		"timeout",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
