// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

// Package middleware provides HTTP middleware shared by the API router.
//
//   - RequestID: assigns or propagates X-Request-ID and stores it for logging
//   - PrometheusMetrics: request count and latency keyed by chi route pattern
//   - AccessLog: one structured zerolog line per request
//
// All middleware use the func(http.Handler) http.Handler shape so they can be
// mounted with chi's Router.Use.
package middleware
