// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/animerec/internal/logging"
	"github.com/tomtom215/animerec/internal/models"
)

// Train handles GET and POST /train. It loads the rating and catalog
// data, trains a new model and publishes it. Concurrent calls get 409.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	if h.trainer == nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Training is not available", nil)
		return
	}

	ctx, cancel := h.requestContext(r.Context(), h.config.Server.TrainTimeout)
	defer cancel()

	start := time.Now()
	summary, err := h.trainer.TrainNow(ctx)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	resp := models.TrainResponse{
		Message:    summary.String(),
		Summary:    summary,
		DurationMS: time.Since(start).Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if h.engine != nil {
		info := h.engine.Info()
		resp.ModelVersion = info.Version
		resp.ModelID = info.ModelID
		resp.Timestamp = info.TrainedAt
	}

	logging.Ctx(r.Context()).Info().
		Int("model_version", resp.ModelVersion).
		Int64("duration_ms", resp.DurationMS).
		Msg("training requested via API completed")

	respondSuccess(w, http.StatusOK, resp)
}
