// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/tomtom215/animerec/internal/logging"
	"github.com/tomtom215/animerec/internal/models"
)

// healthPingTimeout bounds the database check in /health.
const healthPingTimeout = 2 * time.Second

// Index handles GET / and lists the available endpoints.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, models.IndexResponse{
		Message: "Anime Recommendation API",
		Version: APIVersion,
		Endpoints: map[string]string{
			"/train":              "GET|POST - Train the model",
			"/recommend/{userID}": "GET - Get recommendations (?n=10)",
			"/version":            "GET - Model version",
			"/test":               "POST - Batch-test the model",
			"/health":             "GET - Service status",
			"/login":              "POST - Log in",
			"/metrics":            "GET - Prometheus metrics",
		},
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:       "healthy",
		ModelLoaded:  h.engine != nil,
		CacheBackend: h.cacheBackend,
		Database:     "disabled",
		Timestamp:    time.Now().UTC(),
	}
	if h.engine == nil {
		resp.Status = "no_model"
	} else {
		resp.ModelTrained = h.engine.Info().Trained
	}

	if h.data != nil {
		resp.DataLoaded = h.data.DataLoaded()

		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := h.data.Ping(ctx); err != nil {
			resp.Database = "unavailable"
			resp.Status = "degraded"
			logging.Ctx(r.Context()).Warn().Err(err).Msg("health check: database ping failed")
		} else {
			resp.Database = "ok"
		}
	}

	respondSuccess(w, http.StatusOK, resp)
}

// Version handles GET /version.
func (h *Handler) Version(w http.ResponseWriter, _ *http.Request) {
	resp := models.VersionResponse{
		ModelLoaded: h.engine != nil,
		APIVersion:  APIVersion,
		GoVersion:   runtime.Version(),
	}
	if h.engine != nil {
		info := h.engine.Info()
		resp.ModelTrained = info.Trained
		resp.ModelVersion = info.Version
		resp.ModelID = info.ModelID
		if info.Trained {
			ts := info.TrainedAt
			resp.ModelTimestamp = &ts
		}
	}
	respondSuccess(w, http.StatusOK, resp)
}
