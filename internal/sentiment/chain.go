package sentiment

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"time"
)

// ErrDisabled is returned by a chain without configured providers.
var ErrDisabled = errors.New("sentiment classification disabled")

// Recorder receives classification outcomes. *metrics.Metrics implements it.
type Recorder interface {
	RecordSentiment(provider, label string)
}

// Chain tries classifiers in order. Each one is retried on transient
// errors; quota, credential and reply errors move on to the next.
type Chain struct {
	classifiers []Classifier
	retry       RetryConfig
	recorder    Recorder
}

// NewChain creates a chain over classifiers in fallback order.
func NewChain(classifiers []Classifier, retry RetryConfig, recorder Recorder) *Chain {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	return &Chain{classifiers: classifiers, retry: retry, recorder: recorder}
}

// Enabled reports whether any classifier is configured.
func (c *Chain) Enabled() bool {
	return c != nil && len(c.classifiers) > 0
}

// Classify labels text with the first classifier that succeeds.
func (c *Chain) Classify(ctx context.Context, text string) (Result, error) {
	if !c.Enabled() {
		return Result{Label: Unknown}, ErrDisabled
	}

	var errs []error
	for i, cl := range c.classifiers {
		start := time.Now()
		label, err := c.classifyWithRetry(ctx, cl, text)
		if err == nil {
			c.record(cl.Provider(), label)
			slog.DebugContext(ctx, "feedback classified",
				"provider", cl.Provider(),
				"label", label,
				"duration_ms", time.Since(start).Milliseconds())
			return Result{Label: label, Provider: cl.Provider()}, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", cl.Provider(), err))
		c.record(cl.Provider(), "error")

		action := ClassifyError(err)
		slog.WarnContext(ctx, "sentiment provider failed",
			"provider", cl.Provider(),
			"action", action,
			"error", err)
		if action == ActionFail || i == len(c.classifiers)-1 {
			break
		}
	}
	return Result{Label: Unknown}, fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}

func (c *Chain) classifyWithRetry(ctx context.Context, cl Classifier, text string) (Label, error) {
	var lastErr error
	for attempt := range c.retry.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return Unknown, err
		}

		label, err := cl.Classify(ctx, text)
		if err == nil {
			return label, nil
		}
		lastErr = err
		if ClassifyError(err) != ActionRetry || attempt == c.retry.MaxAttempts-1 {
			break
		}

		backoff := CalculateBackoff(attempt+1, c.retry.InitialDelay, c.retry.MaxDelay)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < backoff {
			return Unknown, fmt.Errorf("timeout during retry: %w", lastErr)
		}
		select {
		case <-ctx.Done():
			return Unknown, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return Unknown, lastErr
}

func (c *Chain) record(p Provider, label Label) {
	if c.recorder != nil {
		c.recorder.RecordSentiment(string(p), string(label))
	}
}

// Close releases all classifiers.
func (c *Chain) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, cl := range c.classifiers {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}

// CalculateBackoff returns a Full Jitter delay:
//
//	random(0, min(maxDelay, initial * 2^(attempt-1)))
func CalculateBackoff(attempt int, initial, maxDelay time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := time.Duration(float64(initial) * math.Pow(2, float64(attempt-1)))
	if delay > maxDelay {
		delay = maxDelay
	}
	if delay <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(delay)))
	if err != nil {
		return delay / 2
	}
	return time.Duration(n.Int64())
}
