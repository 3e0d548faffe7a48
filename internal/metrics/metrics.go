package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Scraper metrics
	ScraperRequestsTotal   *prometheus.CounterVec
	ScraperDurationSeconds *prometheus.HistogramVec

	// Directory metrics
	DirectoryRefreshTotal   *prometheus.CounterVec
	DirectoryRefreshSeconds prometheus.Histogram
	DirectoryEntries        *prometheus.GaugeVec

	// Query metrics
	QueriesTotal         *prometheus.CounterVec
	QueryDurationSeconds *prometheus.HistogramVec
	PeriodOverlapsTotal  *prometheus.CounterVec
	FallbackRendersTotal *prometheus.CounterVec

	// Feedback metrics
	SentimentTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec

	// Warmup metrics
	WarmupTasksTotal *prometheus.CounterVec
	WarmupDuration   prometheus.Histogram
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Scraper metrics
		ScraperRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vyatsu_scraper_requests_total",
				Help: "Total number of publisher fetches by document kind and status",
			},
			[]string{"kind", "status"}, // kind: html, pdf; status: success, error, timeout, circuit_open
		),

		ScraperDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vyatsu_scraper_duration_seconds",
				Help:    "Publisher fetch duration in seconds, retries included",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60},
			},
			[]string{"kind"},
		),

		// Directory metrics
		DirectoryRefreshTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vyatsu_directory_refresh_total",
				Help: "Total number of directory rebuilds by status",
			},
			[]string{"status"}, // status: success, error, restored
		),

		DirectoryRefreshSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vyatsu_directory_refresh_duration_seconds",
				Help:    "Duration of a full directory rebuild",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),

		DirectoryEntries: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vyatsu_directory_entries",
				Help: "Number of entries in the published directory snapshot",
			},
			[]string{"type"}, // type: groups, instructors, periods
		),

		// Query metrics
		QueriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vyatsu_queries_total",
				Help: "Total number of schedule queries by operation and outcome",
			},
			[]string{"op", "outcome"}, // op: day, week, select; outcome: entries, image, no_document, no_lessons, invalid_name, ...
		),

		QueryDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vyatsu_query_duration_seconds",
				Help:    "Schedule query duration in seconds by operation",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"op"},
		),

		PeriodOverlapsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vyatsu_period_overlaps_total",
				Help: "Queries whose date was covered by more than one published period",
			},
			[]string{"kind"}, // kind: group, instructor
		),

		FallbackRendersTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vyatsu_fallback_renders_total",
				Help: "Documents rendered to page images after a structural parse failure",
			},
			[]string{"status"}, // status: success, error
		),

		// Feedback metrics
		SentimentTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vyatsu_feedback_sentiment_total",
				Help: "Classified feedback messages by provider and label",
			},
			[]string{"provider", "label"},
		),

		// HTTP metrics
		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vyatsu_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"}, // error_type: invalid_name, ambiguous, timeout, internal, ...
		),

		// Rate limiter metrics
		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vyatsu_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: client, feedback
		),

		// Warmup metrics
		WarmupTasksTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vyatsu_warmup_tasks_total",
				Help: "Total number of warmup tasks by task and status",
			},
			[]string{"task", "status"}, // status: success, error
		),

		WarmupDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vyatsu_warmup_duration_seconds",
				Help:    "Total duration of warmup process",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
	}

	return m
}

// RecordScraper records one logical publisher fetch.
func (m *Metrics) RecordScraper(kind, status string, duration time.Duration) {
	m.ScraperRequestsTotal.WithLabelValues(kind, status).Inc()
	m.ScraperDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordDirectoryRefresh records a directory rebuild attempt.
func (m *Metrics) RecordDirectoryRefresh(status string, duration time.Duration) {
	m.DirectoryRefreshTotal.WithLabelValues(status).Inc()
	if duration > 0 {
		m.DirectoryRefreshSeconds.Observe(duration.Seconds())
	}
}

// SetDirectorySize publishes the size of the current snapshot.
func (m *Metrics) SetDirectorySize(groups, instructors, periods int) {
	m.DirectoryEntries.WithLabelValues("groups").Set(float64(groups))
	m.DirectoryEntries.WithLabelValues("instructors").Set(float64(instructors))
	m.DirectoryEntries.WithLabelValues("periods").Set(float64(periods))
}

// RecordQuery records a schedule query outcome.
func (m *Metrics) RecordQuery(op, outcome string, duration time.Duration) {
	m.QueriesTotal.WithLabelValues(op, outcome).Inc()
	m.QueryDurationSeconds.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordPeriodOverlap records a date covered by several periods.
func (m *Metrics) RecordPeriodOverlap(kind string) {
	m.PeriodOverlapsTotal.WithLabelValues(kind).Inc()
}

// RecordFallback records an image fallback render.
func (m *Metrics) RecordFallback(status string) {
	m.FallbackRendersTotal.WithLabelValues(status).Inc()
}

// RecordSentiment records a classified feedback message.
func (m *Metrics) RecordSentiment(provider, label string) {
	m.SentimentTotal.WithLabelValues(provider, label).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordWarmupTask records a warmup task completion
func (m *Metrics) RecordWarmupTask(task, status string) {
	m.WarmupTasksTotal.WithLabelValues(task, status).Inc()
}

// RecordWarmupDuration records total warmup duration
func (m *Metrics) RecordWarmupDuration(duration time.Duration) {
	m.WarmupDuration.Observe(duration.Seconds())
}
