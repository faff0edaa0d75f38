// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package metrics provides Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Recommendation pipeline latency and strategy selection
// - Degraded best-effort signals (inference, external search)
// - Store query performance
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Recommendation Pipeline Metrics
	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end recommendation request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"strategy"},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total number of recommendation requests served",
		},
		[]string{"strategy"},
	)

	RecommendationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_errors_total",
			Help: "Total number of recommendation requests that aborted",
		},
		[]string{"reason"}, // "profile_not_found", "store_unavailable", "ranker"
	)

	RecommendationItemsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_items_returned",
			Help:    "Number of items returned per recommendation response",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	RecommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_candidates",
			Help:    "Number of posts that passed the exclusion filter per request",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// Degraded Signal Metrics
	DegradedSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "degraded_signals_total",
			Help: "Total number of best-effort signal calls that degraded",
		},
		[]string{"source", "reason"}, // source: "inference", "search"
	)

	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inference_duration_seconds",
			Help:    "Duration of aspiration inference calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ExternalSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "external_search_duration_seconds",
			Help:    "Duration of external content search calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ExternalItemsAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "external_items_appended_total",
			Help: "Total number of external items appended to responses",
		},
	)

	// Store Metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Total number of store query errors",
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Auth Metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"operation", "result"}, // operation: "signup", "login", "token"
	)
)

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRecommendation records a successfully served recommendation request.
func RecordRecommendation(strategy string, items, candidates int, duration time.Duration) {
	RecommendationsServed.WithLabelValues(strategy).Inc()
	RecommendationDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	RecommendationItemsReturned.Observe(float64(items))
	RecommendationCandidates.Observe(float64(candidates))
}

// RecordRecommendationError records an aborted recommendation request.
func RecordRecommendationError(reason string) {
	RecommendationErrors.WithLabelValues(reason).Inc()
}

// RecordDegradedSignal records a best-effort signal call that failed or
// timed out and was degraded rather than propagated.
func RecordDegradedSignal(source, reason string) {
	DegradedSignals.WithLabelValues(source, reason).Inc()
}

// RecordInference records the duration of an aspiration inference call.
func RecordInference(duration time.Duration) {
	InferenceDuration.Observe(duration.Seconds())
}

// RecordExternalSearch records the duration of an external search call and
// the number of items it contributed.
func RecordExternalSearch(duration time.Duration, items int) {
	ExternalSearchDuration.Observe(duration.Seconds())
	ExternalItemsAppended.Add(float64(items))
}

// RecordStoreQuery records a store query outcome.
func RecordStoreQuery(operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordCircuitBreakerTransition records a breaker state change.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
}

// RecordAuthAttempt records an authentication attempt.
func RecordAuthAttempt(operation string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	AuthAttempts.WithLabelValues(operation, result).Inc()
}

func stateValue(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}
