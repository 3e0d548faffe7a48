package sentiment

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// ErrorAction defines the action to take based on error type.
type ErrorAction int

const (
	// ActionRetry retries the same provider.
	ActionRetry ErrorAction = iota
	// ActionFallback moves on to the next provider.
	ActionFallback
	// ActionFail stops immediately.
	ActionFail
)

// String returns a human-readable string for the error action.
func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// LLMError wraps a provider error with its HTTP status.
type LLMError struct {
	Err        error
	StatusCode int
	Provider   Provider
}

func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return e.Err.Error() + " (status: " + strconv.Itoa(e.StatusCode) + ")"
	}
	return e.Err.Error()
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// WrapError attaches provider and status code information.
func WrapError(err error, provider Provider, statusCode int) error {
	if err == nil {
		return nil
	}
	return &LLMError{Err: err, StatusCode: statusCode, Provider: provider}
}

// ClassifyError decides between retrying, falling back and failing:
// transient errors (429, 5xx, network) retry; quota exhaustion and
// unusable replies fall back; other client errors fail.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionFail
	}
	if errors.Is(err, context.Canceled) {
		return ActionFail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ActionRetry
	}
	if errors.Is(err, ErrUnparseable) {
		return ActionFallback
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) && llmErr.StatusCode > 0 {
		return classifyStatusCode(llmErr.StatusCode)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "quota", "daily limit", "billing"):
		return ActionFallback
	case containsAny(msg, "rate limit", "too many requests", "resource_exhausted", "429"):
		return ActionRetry
	case containsAny(msg, "unavailable", "internal server error", "bad gateway", "overloaded", "timeout", "connection"):
		return ActionRetry
	case containsAny(msg, "unauthorized", "unauthenticated", "invalid api key", "forbidden", "permission denied"):
		return ActionFallback
	case containsAny(msg, "bad request", "invalid", "malformed"):
		return ActionFail
	default:
		return ActionRetry
	}
}

// classifyStatusCode determines action based on HTTP status code.
// Credential problems are specific to one provider, so they fall back.
func classifyStatusCode(statusCode int) ErrorAction {
	switch {
	case statusCode == http.StatusTooManyRequests,
		statusCode == http.StatusRequestTimeout,
		statusCode >= 500 && statusCode < 600:
		return ActionRetry
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden,
		statusCode == http.StatusNotFound:
		return ActionFallback
	case statusCode >= 400 && statusCode < 500:
		return ActionFail
	default:
		return ActionRetry
	}
}

// containsAny checks if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
