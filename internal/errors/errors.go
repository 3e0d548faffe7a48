// Package errors provides domain-specific error types and sentinel errors
// for the schedule extraction engine.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for schedule resolution.
// Use errors.Is() to check these errors in your code.
var (
	// ErrInvalidName indicates the query matched no group and no instructor.
	ErrInvalidName = errors.New("invalid entity name")

	// ErrNoDocumentForDate indicates no period of the entity's scope covers the date.
	// Service callers receive it as a result kind, not as an error.
	ErrNoDocumentForDate = errors.New("no document for date")

	// ErrNoLessonsForDate indicates the document has no lessons on the date.
	ErrNoLessonsForDate = errors.New("no lessons for date")

	// ErrEntityColumnNotFound indicates the table header has no column for the entity.
	ErrEntityColumnNotFound = errors.New("entity column not found")

	// ErrDateNotFound indicates a weekday label without a nearby date.
	// Recovered by rendering page images.
	ErrDateNotFound = errors.New("date not found for weekday")

	// ErrStructuralParse indicates a token stream that violates the slot ordering.
	// Recovered by rendering page images.
	ErrStructuralParse = errors.New("structural parse failure")

	// ErrDirectoryUnavailable indicates the directory could not be (re)built.
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// ErrNetworkFailure indicates a fetch failed after all retries.
	ErrNetworkFailure = errors.New("network failure")

	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

// IsStructural reports whether err is a layout failure that the image
// fallback can recover from.
func IsStructural(err error) bool {
	return errors.Is(err, ErrDateNotFound) || errors.Is(err, ErrStructuralParse)
}

// Candidate is one of several records an ambiguous query matched.
type Candidate struct {
	Name  string `json:"name"`
	Scope string `json:"scope"` // department
}

// AmbiguousMatchError is returned when an instructor query matches more than
// one directory record. The caller picks one of Candidates and queries it
// directly.
type AmbiguousMatchError struct {
	Query      string
	Candidates []Candidate
}

func (e *AmbiguousMatchError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.Name
	}
	return fmt.Sprintf("ambiguous match for %q: %s", e.Query, strings.Join(names, ", "))
}

// NewAmbiguousMatchError creates a new ambiguous match error.
func NewAmbiguousMatchError(query string, candidates []Candidate) *AmbiguousMatchError {
	return &AmbiguousMatchError{
		Query:      query,
		Candidates: candidates,
	}
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ScraperError represents web scraping failures with context.
type ScraperError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ScraperError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("scraper error (url=%s, status=%d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("scraper error (url=%s): %v", e.URL, e.Err)
}

// Unwrap exposes both the cause and ErrNetworkFailure so callers can match
// either with errors.Is.
func (e *ScraperError) Unwrap() []error {
	return []error{ErrNetworkFailure, e.Err}
}

// NewScraperError creates a new scraper error.
func NewScraperError(url string, statusCode int, err error) *ScraperError {
	return &ScraperError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}
