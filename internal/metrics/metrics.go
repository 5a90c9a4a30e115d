// Package metrics exposes Prometheus collectors for the enricher.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enricherCompaniesTotal       *prometheus.CounterVec
	enricherAttemptsTotal        *prometheus.CounterVec
	enricherStageDurationSeconds *prometheus.HistogramVec
	enricherBatchDurationSeconds prometheus.Histogram
	enricherPacingWaitSeconds    prometheus.Histogram
	enricherRowsInsertedTotal    prometheus.Counter
	enricherCheckpoint           prometheus.Gauge
	enricherActiveWorkers        prometheus.Gauge
	httpRequestsTotal            *prometheus.CounterVec
	httpRequestDurationSeconds   *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		enricherCompaniesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_companies_total",
				Help: "Total number of companies processed, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		enricherAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_attempts_total",
				Help: "Total number of fetch/extract attempts, labeled by stage and result.",
			},
			[]string{"stage", "result"},
		)

		enricherStageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enricher_stage_duration_seconds",
				Help:    "Histogram of fetch and extract latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stage"},
		)

		enricherBatchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "enricher_batch_duration_seconds",
				Help:    "Histogram of wall-clock time spent per batch before pacing.",
				Buckets: []float64{1, 5, 10, 20, 30, 60, 120},
			},
		)

		enricherPacingWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "enricher_pacing_wait_seconds",
				Help:    "Histogram of rate-limit pacing waits between batches.",
				Buckets: []float64{0.1, 1, 5, 10, 30, 60},
			},
		)

		enricherRowsInsertedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "enricher_rows_inserted_total",
				Help: "Total number of summary rows written.",
			},
		)

		enricherCheckpoint = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "enricher_checkpoint",
				Help: "Roster offset of the next unprocessed company.",
			},
		)

		enricherActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "enricher_active_workers",
				Help: "Number of workers currently processing a company.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCompany increments the per-company outcome counter.
func ObserveCompany(site string, outcome string) {
	Init()
	enricherCompaniesTotal.WithLabelValues(SanitizeSite(site), outcome).Inc()
}

// ObserveAttempt records a single fetch or extract call.
func ObserveAttempt(stage string, result string, duration time.Duration) {
	Init()
	enricherAttemptsTotal.WithLabelValues(stage, result).Inc()
	enricherStageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveBatch records the duration of a batch.
func ObserveBatch(duration time.Duration) {
	Init()
	enricherBatchDurationSeconds.Observe(duration.Seconds())
}

// ObservePacingWait records the duration of a rate-limit wait.
func ObservePacingWait(duration time.Duration) {
	Init()
	enricherPacingWaitSeconds.Observe(duration.Seconds())
}

// IncRowsInserted counts a persisted summary row.
func IncRowsInserted() {
	Init()
	enricherRowsInsertedTotal.Inc()
}

// SetCheckpoint publishes the current checkpoint offset.
func SetCheckpoint(index int) {
	Init()
	enricherCheckpoint.Set(float64(index))
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	enricherActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	enricherActiveWorkers.Dec()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		ObserveHTTPRequest(r.Method, route, rec.statusCode, time.Since(start))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}
