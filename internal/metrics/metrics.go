// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

// Package metrics declares the Prometheus instruments exported at /metrics.
//
// Instruments are registered with the default registry through promauto, so
// importing the package is enough to expose them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Document store

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pelixflow_store_operation_duration_seconds",
			Help:    "Duration of user document store operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"operation"}, // get, merge_patch
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pelixflow_store_operation_errors_total",
			Help: "Total number of failed user document store operations",
		},
		[]string{"operation"},
	)

	StoreConflictRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pelixflow_store_conflict_retries_total",
			Help: "Merge-patch transactions retried after a write conflict",
		},
	)

	// Identity

	IdentityResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pelixflow_identity_resolutions_total",
			Help: "Universal identifier resolutions by outcome",
		},
		[]string{"result"}, // found, created, error
	)

	// Generator

	GeneratorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pelixflow_generator_requests_total",
			Help: "Generator calls by flow and outcome",
		},
		[]string{"flow", "result"}, // result: success, empty, error
	)

	GeneratorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pelixflow_generator_duration_seconds",
			Help:    "Generator call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"flow"},
	)

	// Circuit breaker

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
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

	// Sessions and chat

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pelixflow_active_sessions",
			Help: "User sessions currently held in memory",
		},
	)

	SessionEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pelixflow_session_evictions_total",
			Help: "Sessions dropped from memory",
		},
		[]string{"reason"}, // capacity, expired, removed
	)

	StaleChatReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pelixflow_chat_stale_replies_total",
			Help: "Generator replies dropped because their chat was deleted or superseded",
		},
		[]string{"kind"}, // message, fusion
	)

	// HTTP API

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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// RecordStoreOperation records one document store call.
func RecordStoreOperation(operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation).Inc()
	}
}

// RecordGeneratorCall records one generator call. result is success, empty or error.
func RecordGeneratorCall(flow, result string, duration time.Duration) {
	GeneratorRequests.WithLabelValues(flow, result).Inc()
	GeneratorDuration.WithLabelValues(flow).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
