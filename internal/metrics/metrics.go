// Package metrics exposes Prometheus collectors for the monitoring
// engine: job outcomes, breaker trips, classifier votes, alerts raised,
// and browser pool occupancy, using promauto/promhttp. These collectors
// are read by library packages (scheduler, workflow, browser) that run
// under test without a bootstrap step, so registration happens via
// plain package-level promauto vars rather than an explicit Init()
// guarded by sync.Once — the vars are always safe to observe.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitesentry_jobs_total",
			Help: "Total scheduled job runs, labeled by site and outcome.",
		},
		[]string{"site", "status"},
	)

	breakerTripsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitesentry_breaker_trips_total",
			Help: "Total times a site's circuit breaker opened.",
		},
		[]string{"site"},
	)

	classifierVotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitesentry_classifier_votes_total",
			Help: "Total sub-classifier votes, labeled by classifier and verdict tag.",
		},
		[]string{"classifier", "tag"},
	)

	alertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitesentry_alerts_total",
			Help: "Total alerts raised, labeled by kind and severity.",
		},
		[]string{"kind", "severity"},
	)

	activeBrowserSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sitesentry_active_browser_sessions",
			Help: "Number of browser pool sessions currently checked out.",
		},
	)

	fetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitesentry_fetch_duration_seconds",
			Help:    "Histogram of page fetch durations, labeled by site.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"site"},
	)

	classifyDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitesentry_classify_duration_seconds",
			Help:    "Histogram of ensemble classification durations.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)
)

// Handler returns an http.Handler exposing the registered collectors.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveJob records a scheduled job's terminal outcome for a site.
func ObserveJob(siteID, status string) {
	jobsTotal.WithLabelValues(siteID, status).Inc()
}

// ObserveBreakerTrip records a site's circuit breaker opening.
func ObserveBreakerTrip(siteID string) {
	breakerTripsTotal.WithLabelValues(siteID).Inc()
}

// ObserveClassifierVote records one sub-classifier's vote.
func ObserveClassifierVote(classifier, tag string) {
	classifierVotesTotal.WithLabelValues(classifier, tag).Inc()
}

// ObserveAlert records an alert being raised.
func ObserveAlert(kind, severity string) {
	alertsTotal.WithLabelValues(kind, severity).Inc()
}

// IncActiveBrowserSessions increments the checked-out browser session gauge.
func IncActiveBrowserSessions() {
	activeBrowserSessions.Inc()
}

// DecActiveBrowserSessions decrements the checked-out browser session gauge.
func DecActiveBrowserSessions() {
	activeBrowserSessions.Dec()
}

// ObserveFetchDuration records how long a site's fetch took.
func ObserveFetchDuration(siteID string, d time.Duration) {
	fetchDurationSeconds.WithLabelValues(siteID).Observe(d.Seconds())
}

// ObserveClassifyDuration records how long an ensemble classification took.
func ObserveClassifyDuration(d time.Duration) {
	classifyDurationSeconds.Observe(d.Seconds())
}
