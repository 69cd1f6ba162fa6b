// Package telemetry defines the Prometheus metrics for the harvester and
// small helpers to record them.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	harvesterPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_pages_total",
			Help: "Total number of pages fetched, labeled by source and status code.",
		},
		[]string{"source", "status"},
	)

	harvesterFetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harvester_fetch_duration_seconds",
			Help:    "Histogram of page fetch latencies, labeled by source.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"source"},
	)

	harvesterListingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_listings_total",
			Help: "Total listings processed, labeled by source and outcome (new or duplicate).",
		},
		[]string{"source", "outcome"},
	)

	harvesterRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_retries_total",
			Help: "Total fetch retry attempts, labeled by source.",
		},
		[]string{"source"},
	)

	harvesterSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_sessions_total",
			Help: "Total scrape sessions recorded, labeled by source and final status.",
		},
		[]string{"source", "status"},
	)

	harvesterActiveRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "harvester_active_runs",
			Help: "Number of source runs currently in progress.",
		},
	)

	harvesterRateLimitDelaysSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harvester_rate_limit_delays_seconds",
			Help:    "Histogram of delays introduced by rate limiting.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"domain"},
	)
)

// RecordPageFetch counts one fetched page and its latency.
func RecordPageFetch(source string, statusCode int, duration time.Duration) {
	harvesterPagesTotal.WithLabelValues(source, strconv.Itoa(statusCode)).Inc()
	harvesterFetchDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordListings counts the dedup outcome of a persisted batch.
func RecordListings(source string, newCount, dupCount int) {
	harvesterListingsTotal.WithLabelValues(source, "new").Add(float64(newCount))
	harvesterListingsTotal.WithLabelValues(source, "duplicate").Add(float64(dupCount))
}

// RecordRetry counts one retry attempt.
func RecordRetry(source string) {
	harvesterRetriesTotal.WithLabelValues(source).Inc()
}

// RecordSession counts one finished session.
func RecordSession(source, status string) {
	harvesterSessionsTotal.WithLabelValues(source, status).Inc()
}

// RunStarted marks a source run as in progress; the returned func marks it done.
func RunStarted() func() {
	harvesterActiveRuns.Inc()
	return harvesterActiveRuns.Dec
}

// ObserveRateLimitDelay records a delay introduced by the rate limiter or
// throttler for a domain.
func ObserveRateLimitDelay(domain string, delay time.Duration) {
	harvesterRateLimitDelaysSeconds.WithLabelValues(domain).Observe(delay.Seconds())
}
