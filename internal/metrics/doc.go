// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

// Package metrics defines the Prometheus metrics exported on /metrics.
//
// All collectors are registered on the default registry through promauto.
// Callers use the Record*/Set* helpers rather than touching the collectors
// directly, which keeps label values consistent.
//
// Metric families:
//   - animerec_api_*: request count, latency and in-flight requests
//   - animerec_recommendations_*: outcome counts and compute latency
//   - animerec_training_*, animerec_model_*: training runs and the serving model
//   - animerec_cache_*, animerec_circuit_breaker_state: result cache backends
//   - animerec_duckdb_*, animerec_rows_loaded: data ingestion
//   - animerec_login_attempts_total: authentication
package metrics
