package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryWithBackoff_Success(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := RetryWithBackoff(context.Background(), 5, time.Millisecond, func() error {
		attempts++
		if attempts == 3 {
			return nil
		}
		return &testError{"temporary error"}
	})
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoff_MaxRetriesExceeded(t *testing.T) {
	t.Parallel()
	attempts := 0
	expectedError := &testError{"still failing"}

	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		return expectedError
	})
	if err == nil {
		t.Fatal("Expected error after max retries")
	}

	// initial + 3 retries
	if attempts != 4 {
		t.Errorf("Expected 4 attempts (initial + 3 retries), got %d", attempts)
	}
	if !errors.Is(err, expectedError) {
		t.Errorf("Expected error '%v', got '%v'", expectedError, err)
	}
}

func TestRetryWithBackoff_PermanentStopsImmediately(t *testing.T) {
	t.Parallel()
	attempts := 0
	cause := errors.New("client error: status 404")

	err := RetryWithBackoff(context.Background(), 5, time.Millisecond, func() error {
		attempts++
		return Permanent(cause)
	})

	if attempts != 1 {
		t.Errorf("Expected 1 attempt for permanent error, got %d", attempts)
	}
	if err != cause {
		t.Errorf("Expected unwrapped cause, got %v", err)
	}
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := RetryWithBackoff(ctx, 5, 50*time.Millisecond, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return &testError{"error"}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestBackoffDelay_Jitter(t *testing.T) {
	t.Parallel()
	for attempt := range 4 {
		base := 100 * time.Millisecond << attempt
		for range 20 {
			d := backoffDelay(100*time.Millisecond, attempt)
			if d < base*3/4 || d > base*5/4 {
				t.Fatalf("attempt %d: delay %v outside ±25%% of %v", attempt, d, base)
			}
		}
	}
}

func TestSleep_ContextCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Second)
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Expected immediate return, but waited %v", elapsed)
	}
}

func TestIsNetworkError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"permanent error", Permanent(errors.New("client error")), false},
		{"wrapped permanent error", fmt.Errorf("wrapped: %w", Permanent(errors.New("client error"))), false},
		{"timeout error", &netTimeError{timeout: true}, true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:8080: connection refused"), true},
		{"server error", errors.New("server error for x: status 503"), true},
		{"unknown generic error", errors.New("something went wrong"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNetworkError(tt.err); got != tt.expected {
				t.Errorf("IsNetworkError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

type netTimeError struct {
	timeout bool
}

func (e *netTimeError) Error() string   { return "net error" }
func (e *netTimeError) Timeout() bool   { return e.timeout }
func (e *netTimeError) Temporary() bool { return false }
