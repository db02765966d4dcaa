// Package metrics exposes Prometheus collectors for the animal image service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attempt outcomes recorded by ObserveAttempt.
const (
	OutcomeStored      = "stored"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeStoreFailed = "store_failed"
)

var (
	fetchAttemptsTotal         *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	batchesTotal               *prometheus.CounterVec
	rateLimitDelaySeconds      *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "animal_fetch_attempts_total",
				Help: "Total number of image fetch attempts, labeled by category and outcome.",
			},
			[]string{"category", "outcome"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "animal_fetch_bytes_total",
				Help: "Total number of image bytes stored, labeled by category and provider host.",
			},
			[]string{"category", "site"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "animal_fetch_duration_seconds",
				Help:    "Histogram of provider fetch latencies, labeled by category.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"category"},
		)

		batchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "animal_fetch_batches_total",
				Help: "Total number of fetch batches, labeled by category and whether anything was stored.",
			},
			[]string{"category", "result"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "animal_rate_limit_delay_seconds",
				Help:    "Time spent waiting on the per-provider rate limiter, labeled by site.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"site"},
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
	if !strings.HasPrefix(rawURL, "http") {
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

// ObserveAttempt increments the attempt counter for category and outcome.
func ObserveAttempt(category, outcome string) {
	Init()
	fetchAttemptsTotal.WithLabelValues(category, outcome).Inc()
}

// ObserveFetch records a completed provider round trip.
func ObserveFetch(category, sourceURL string, bytesFetched int, duration time.Duration) {
	Init()
	fetchDurationSeconds.WithLabelValues(category).Observe(duration.Seconds())
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(category, SanitizeSite(sourceURL)).Add(float64(bytesFetched))
	}
}

// ObserveBatch records the end of a FetchAndStore batch.
func ObserveBatch(category string, stored int) {
	Init()
	result := "empty"
	if stored > 0 {
		result = "stored"
	}
	batchesTotal.WithLabelValues(category, result).Inc()
}

// ObserveRateLimitDelay records how long a fetch waited for its provider's token.
func ObserveRateLimitDelay(site string, delay time.Duration) {
	Init()
	rateLimitDelaySeconds.WithLabelValues(site).Observe(delay.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
