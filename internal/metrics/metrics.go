// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package metrics defines the Prometheus instrumentation for Cadence.
//
// Metrics are registered on the default registry at package init and
// exposed by the API layer at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ranking pipeline

	RankingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_requests_total",
			Help: "Total number of ranking requests by outcome",
		},
		[]string{"outcome"}, // ok, degraded, invalid, not_found, store_unavailable, canceled
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranking_duration_seconds",
			Help:    "End-to-end ranking latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RankingResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranking_result_size",
			Help:    "Number of items returned per ranking",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	RankingCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranking_candidates",
			Help:    "Number of eligible candidates per ranking",
			Buckets: prometheus.ExponentialBuckets(1, 4, 9), // 1 .. 65536
		},
	)

	RankingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_cache_hits_total",
			Help: "Total number of rankings served from cache",
		},
	)

	// Scoring

	ScoringCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_calls_total",
			Help: "Total number of scorer calls by result",
		},
		[]string{"result"}, // ok, unavailable, timeout, invalid
	)

	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "Duration of individual scorer calls in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	ScoringAbandoned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoring_abandoned_total",
			Help: "Scorer calls still running when their per-call timeout fired",
		},
	)

	ScoringAbandonedInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scoring_abandoned_in_flight",
			Help: "Timed-out scorer calls that have not returned yet",
		},
	)

	ScorerBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scorer_breaker_state",
			Help: "Scorer circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	ScorerBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorer_breaker_transitions_total",
			Help: "Total number of scorer circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)

	// Model lifecycle

	ModelRefits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_refits_total",
			Help: "Total number of model refits by result",
		},
		[]string{"result"}, // success, skipped, error
	)

	ModelRefitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "model_refit_duration_seconds",
			Help:    "Duration of model refits in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms .. ~43m
		},
	)

	ModelSnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_snapshot_version",
			Help: "Version of the currently published model snapshot",
		},
	)

	ModelSnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_snapshot_fitted_timestamp_seconds",
			Help: "Unix time at which the published snapshot was fitted",
		},
	)

	// Database

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of catalog store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of catalog store query errors",
		},
		[]string{"operation"},
	)

	// API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)
)

// RecordRanking records the outcome of one ranking request.
func RecordRanking(outcome string, duration time.Duration, size int) {
	RankingRequests.WithLabelValues(outcome).Inc()
	RankingDuration.Observe(duration.Seconds())
	if outcome == "ok" || outcome == "degraded" {
		RankingResultSize.Observe(float64(size))
	}
}

// RecordScoringCall records one scorer call.
func RecordScoringCall(result string, duration time.Duration) {
	ScoringCalls.WithLabelValues(result).Inc()
	ScoringDuration.Observe(duration.Seconds())
}

// RecordScoringAbandoned records a scorer call left running after its
// timeout. Pair with RecordAbandonedReturn when the call finally returns.
func RecordScoringAbandoned() {
	ScoringAbandoned.Inc()
	ScoringAbandonedInFlight.Inc()
}

// RecordAbandonedReturn records that an abandoned scorer call returned.
func RecordAbandonedReturn() {
	ScoringAbandonedInFlight.Dec()
}

// RecordBreakerTransition records a scorer circuit breaker state change.
// States follow gobreaker ordering: 0 closed, 1 half-open, 2 open.
func RecordBreakerTransition(from, to string, state int) {
	ScorerBreakerTransitions.WithLabelValues(from, to).Inc()
	ScorerBreakerState.Set(float64(state))
}

// RecordRefit records a model refit. A zero version leaves the snapshot
// gauges untouched.
func RecordRefit(result string, duration time.Duration, version int64, fittedAt time.Time) {
	ModelRefits.WithLabelValues(result).Inc()
	if result != "skipped" {
		ModelRefitDuration.Observe(duration.Seconds())
	}
	if version > 0 {
		SetSnapshot(version, fittedAt)
	}
}

// SetSnapshot publishes the current snapshot version and fit time.
func SetSnapshot(version int64, fittedAt time.Time) {
	ModelSnapshotVersion.Set(float64(version))
	ModelSnapshotAge.Set(float64(fittedAt.Unix()))
}

// RecordDBQuery records a catalog store query.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
