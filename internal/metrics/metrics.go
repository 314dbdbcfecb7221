// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animerec_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "animerec_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Recommendation Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_recommendations_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"}, // "cf", "fallback", "cache_hit", "user_not_found", "not_trained", "error"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animerec_recommendation_duration_seconds",
			Help:    "Time to compute recommendations for one user",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// Training Metrics
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_training_runs_total",
			Help: "Training runs by status",
		},
		[]string{"status"}, // "success", "error", "rejected"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animerec_training_duration_seconds",
			Help:    "Duration of training runs including data load",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "animerec_model_version",
			Help: "Version of the model currently serving",
		},
	)

	ModelMatrixSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "animerec_model_matrix_size",
			Help: "Dimensions of the serving user-item matrix",
		},
		[]string{"dimension"}, // "users", "items"
	)

	// Cache Metrics
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_cache_operations_total",
			Help: "Result cache operations by backend and result",
		},
		[]string{"backend", "operation", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "animerec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Data Ingestion Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animerec_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	RowsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "animerec_rows_loaded",
			Help: "Rows loaded by the last data import",
		},
		[]string{"table"}, // "ratings", "items"
	)

	// Auth Metrics
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_login_attempts_total",
			Help: "Login attempts by result",
		},
		[]string{"result"}, // "success", "invalid", "throttled", "error"
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records a served (or failed) recommendation request.
func RecordRecommendation(outcome string, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		RecommendationDuration.Observe(duration.Seconds())
	}
}

// RecordTraining records a training run. A zero duration is counted without
// a latency observation (rejected runs).
func RecordTraining(status string, duration time.Duration) {
	TrainingRunsTotal.WithLabelValues(status).Inc()
	if duration > 0 {
		TrainingDuration.Observe(duration.Seconds())
	}
}

// SetModel publishes the serving model's version and matrix shape.
func SetModel(version, users, items int) {
	ModelVersion.Set(float64(version))
	ModelMatrixSize.WithLabelValues("users").Set(float64(users))
	ModelMatrixSize.WithLabelValues("items").Set(float64(items))
}

// RecordCacheOperation records a cache get/set against a backend.
func RecordCacheOperation(backend, operation, result string) {
	CacheOperations.WithLabelValues(backend, operation, result).Inc()
}

// SetCircuitBreakerState records the state of a named circuit breaker.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordDBQuery records a DuckDB query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// SetRowsLoaded records the row count of an imported table.
func SetRowsLoaded(table string, rows int) {
	RowsLoaded.WithLabelValues(table).Set(float64(rows))
}

// RecordLogin records a login attempt result.
func RecordLogin(result string) {
	LoginAttempts.WithLabelValues(result).Inc()
}
