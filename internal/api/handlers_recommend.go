// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/animerec/internal/logging"
	"github.com/tomtom215/animerec/internal/metrics"
	"github.com/tomtom215/animerec/internal/models"
	"github.com/tomtom215/animerec/internal/recommend"
)

// Recommend handles GET /recommend/{userID}?n=10.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "userID must be an integer", nil)
		return
	}

	n := h.clampN(getIntParam(r, "n", h.config.Recommend.DefaultN))

	ctx := logging.ContextWithUserID(r.Context(), userID)
	ctx, cancel := h.requestContext(ctx, h.config.Server.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := h.engine.Recommend(ctx, userID, n)
	metrics.RecordRecommendation(recommendOutcome(resp, err), time.Since(start))
	if err != nil {
		respondEngineError(w, r.WithContext(ctx), err)
		return
	}

	out := models.APIResponse{
		Status: models.StatusSuccess,
		Data: models.RecommendResponse{
			UserID:          resp.UserID,
			Recommendations: nonNil(resp.Recommendations),
			Count:           len(resp.Recommendations),
			Fallback:        resp.Fallback,
			ModelVersion:    resp.ModelVersion,
			Timestamp:       time.Now().UTC(),
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: resp.LatencyMS,
			Cached:      resp.CacheHit,
		},
	}
	respondJSON(w, http.StatusOK, &out)
}

// Test handles POST /test. Each user is recommended independently; a
// failure for one user is reported in its result and counted against the
// success rate.
func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Info().Trained {
		respondEngineError(w, r, recommend.ErrModelNotTrained)
		return
	}

	var req models.TestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "A JSON body with a 'test_users' list is required", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	if limit := h.config.Recommend.MaxTestUsers; limit > 0 && len(req.TestUsers) > limit {
		respondAPIError(w, http.StatusBadRequest, &models.APIError{
			Code:    models.ErrCodeValidation,
			Message: "test_users must contain at most " + strconv.Itoa(limit) + " items",
			Details: map[string]interface{}{"max_test_users": limit},
		})
		return
	}

	n := h.config.Recommend.TestDefaultN
	if req.NRecommendations != nil {
		n = *req.NRecommendations
	}
	n = h.clampN(n)

	ctx, cancel := h.requestContext(r.Context(), h.config.Server.RequestTimeout)
	defer cancel()

	results := make([]models.TestUserResult, 0, len(req.TestUsers))
	succeeded := 0
	for _, userID := range req.TestUsers {
		start := time.Now()
		resp, err := h.engine.Recommend(ctx, userID, n)
		metrics.RecordRecommendation(recommendOutcome(resp, err), time.Since(start))

		if err != nil {
			_, _, message := engineError(err)
			results = append(results, models.TestUserResult{
				UserID:          userID,
				Recommendations: []recommend.Recommendation{},
				Status:          models.StatusError,
				Message:         message,
			})
			continue
		}
		succeeded++
		results = append(results, models.TestUserResult{
			UserID:          userID,
			Recommendations: nonNil(resp.Recommendations),
			Status:          models.StatusSuccess,
		})
	}

	respondSuccess(w, http.StatusOK, models.TestResponse{
		TestResults: results,
		Metrics: models.TestMetrics{
			TotalUsersTested:          len(req.TestUsers),
			SuccessfulRecommendations: succeeded,
			SuccessRate:               float64(succeeded) / float64(len(req.TestUsers)),
		},
	})
}

// clampN caps n at the configured maximum. Values <= 0 pass through and
// yield an empty list.
func (h *Handler) clampN(n int) int {
	if maxN := h.config.Recommend.MaxN; maxN > 0 && n > maxN {
		return maxN
	}
	return n
}

func recommendOutcome(resp *recommend.Response, err error) string {
	switch {
	case errors.Is(err, recommend.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, recommend.ErrModelNotTrained):
		return "not_trained"
	case err != nil:
		return "error"
	case resp.CacheHit:
		return "cache_hit"
	case resp.Fallback:
		return "fallback"
	default:
		return "cf"
	}
}

// nonNil keeps empty results encoded as [] rather than null.
func nonNil(recs []recommend.Recommendation) []recommend.Recommendation {
	if recs == nil {
		return []recommend.Recommendation{}
	}
	return recs
}
