// Package scraper provides the HTTP client used to fetch pages and documents
// from the university site: per-request timeout, token bucket spacing,
// bounded retries with backoff, a circuit breaker, response decompression
// and legacy charset decoding.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/corpix/uarand"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/sony/gobreaker"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
)

// DefaultMaxBodySize caps a single response; schedule PDFs are well below this.
const DefaultMaxBodySize = 32 << 20

// Recorder receives one observation per logical fetch (after retries).
// *metrics.Metrics implements it.
type Recorder interface {
	RecordScraper(kind, status string, duration time.Duration)
}

// Options configures a Client.
type Options struct {
	Timeout        time.Duration // per attempt
	MaxRetries     int
	RetryInitial   time.Duration
	MinDelay       time.Duration // sustained spacing between requests
	Burst          int           // requests allowed back to back
	BreakerTimeout time.Duration // how long the circuit stays open
	MaxBodySize    int64         // bytes; larger responses fail without retry
	Recorder       Recorder
}

// Response is a fully read, decompressed HTTP response body.
type Response struct {
	URL         string
	ContentType string
	Body        []byte
}

// IsPDF reports whether the response carries a PDF document.
func (r *Response) IsPDF() bool {
	return strings.Contains(strings.ToLower(r.ContentType), "application/pdf") ||
		bytes.HasPrefix(r.Body, []byte("%PDF-"))
}

// Client is an HTTP client for scraping vyatsu.ru.
type Client struct {
	httpClient   *http.Client
	rateLimiter  *RateLimiter
	breaker      *gobreaker.CircuitBreaker
	flight       *CacheWrapper
	recorder     Recorder
	maxRetries   int
	retryInitial time.Duration
	maxBodySize  int64
}

// NewClient creates a new scraper client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.RetryInitial <= 0 {
		opts.RetryInitial = time.Second
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "vyatsu",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
		// Client errors mean the site answered; they must not open the circuit.
		IsSuccessful: func(err error) bool {
			var permErr *permanentError
			return err == nil || errors.As(err, &permErr)
		},
	})

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		rateLimiter:  NewRateLimiter(opts.Burst, opts.MinDelay),
		breaker:      breaker,
		flight:       NewCacheWrapper(),
		recorder:     opts.Recorder,
		maxRetries:   opts.MaxRetries,
		retryInitial: opts.RetryInitial,
		maxBodySize:  opts.MaxBodySize,
	}
}

// Fetch downloads url with retries. Concurrent callers asking for the same
// URL share one download. Failures after all retries are returned as
// *errors.ScraperError, which matches errors.ErrNetworkFailure.
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	resp, _, err := DoScrape(ctx, c.flight, url, func() (*Response, error) {
		return c.fetch(ctx, url)
	})
	return resp, err
}

func (c *Client) fetch(ctx context.Context, url string) (*Response, error) {
	start := time.Now()
	var result *Response
	var lastStatus int

	err := RetryWithBackoff(ctx, c.maxRetries, c.retryInitial, func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return Permanent(err)
		}

		out, err := c.breaker.Execute(func() (any, error) {
			return c.attempt(ctx, url, &lastStatus)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return Permanent(err)
			}
			if ctx.Err() != nil {
				return Permanent(err)
			}
			slog.DebugContext(ctx, "Fetch attempt failed", "url", url, "error", err)
			return err
		}
		result = out.(*Response)
		return nil
	})

	c.record(result, err, time.Since(start))
	if err != nil {
		return nil, domerrors.NewScraperError(url, lastStatus, err)
	}
	return result, nil
}

// attempt performs a single request. Non-retryable statuses and failures
// that IsNetworkError does not recognize as transient are wrapped with
// Permanent.
func (c *Client) attempt(ctx context.Context, url string, status *int) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", uarand.GetRandom())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.7,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, zstd")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transient(fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()
	*status = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited for %s: status %d", url, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("server error for %s: status %d", url, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusUnauthorized:
		return nil, Permanent(fmt.Errorf("client error for %s: status %d", url, resp.StatusCode))
	default:
		return nil, Permanent(fmt.Errorf("unexpected status for %s: %d", url, resp.StatusCode))
	}

	body, err := decodeBody(resp, c.maxBodySize)
	if err != nil {
		return nil, transient(err)
	}
	return &Response{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// transient returns err unchanged when retrying may help and marks it
// permanent otherwise.
func transient(err error) error {
	if IsNetworkError(err) {
		return err
	}
	return Permanent(err)
}

// decodeBody reads at most limit bytes of the body, undoing Content-Encoding.
func decodeBody(resp *http.Response, limit int64) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress gzip: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress zstd: %w", err)
		}
		defer zr.Close()
		reader = zr
	}

	body, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return body, nil
}

// GetDocument fetches url and parses it as HTML, decoding windows-1251
// pages to UTF-8.
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := c.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParseHTML(resp)
}

// ParseHTML parses a fetched response as HTML.
func ParseHTML(resp *Response) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(HTMLReader(resp))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// HTMLReader returns a UTF-8 reader over the response body.
func HTMLReader(resp *Response) io.Reader {
	var reader io.Reader = bytes.NewReader(resp.Body)
	if isWindows1251(resp) {
		reader = transform.NewReader(reader, charmap.Windows1251.NewDecoder())
	}
	return reader
}

// isWindows1251 checks the header, then the first KiB for a meta charset.
func isWindows1251(resp *Response) bool {
	ct := strings.ToLower(resp.ContentType)
	if strings.Contains(ct, "charset=") {
		return strings.Contains(ct, "1251")
	}
	head := resp.Body
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.ToLower(head)
	return bytes.Contains(head, []byte("windows-1251")) || bytes.Contains(head, []byte("cp1251"))
}

func (c *Client) record(resp *Response, err error, d time.Duration) {
	if c.recorder == nil {
		return
	}
	kind := "html"
	if resp != nil && resp.IsPDF() {
		kind = "pdf"
	}
	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = "timeout"
	case errors.Is(err, gobreaker.ErrOpenState):
		status = "circuit_open"
	default:
		status = "error"
	}
	c.recorder.RecordScraper(kind, status, d)
}
