// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/animerec/internal/auth"
	"github.com/tomtom215/animerec/internal/logging"
	"github.com/tomtom215/animerec/internal/metrics"
	"github.com/tomtom215/animerec/internal/models"
)

// Login handles POST /login. Valid credentials from the users file are
// exchanged for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "A JSON body is required", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	logger := logging.Ctx(r.Context()).With().Str("username", sanitizeLogValue(req.Username)).Logger()

	if h.limiter != nil && !h.limiter.Allow(req.Username) {
		metrics.RecordLogin("throttled")
		logger.Warn().Msg("login throttled")
		respondError(w, http.StatusTooManyRequests, models.ErrCodeRateLimited, "Too many login attempts, try again later", nil)
		return
	}

	if h.users == nil || h.tokens == nil {
		metrics.RecordLogin("error")
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Login is not available", nil)
		return
	}

	err := h.users.Authenticate(req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrUsersFileMissing):
		metrics.RecordLogin("error")
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Users file not found", err)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		metrics.RecordLogin("invalid")
		logger.Info().Msg("login rejected")
		respondError(w, http.StatusUnauthorized, models.ErrCodeAuthentication, "Invalid username or password", nil)
		return
	case err != nil:
		metrics.RecordLogin("error")
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Internal server error", err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(req.Username)
	if err != nil {
		metrics.RecordLogin("error")
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to issue token", err)
		return
	}

	if h.limiter != nil {
		h.limiter.Reset(req.Username)
	}
	metrics.RecordLogin("success")
	logger.Info().Msg("login succeeded")

	respondSuccess(w, http.StatusOK, models.LoginResponse{
		Message:   "Login successful",
		User:      req.Username,
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	})
}

// denyUnauthorized writes the 401 envelope for auth.Middleware.
func denyUnauthorized(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Debug().Err(err).Msg("request denied")
	respondError(w, http.StatusUnauthorized, models.ErrCodeAuthentication, "Authentication required", nil)
}

// DenyFunc returns the handler auth.NewMiddleware should use for
// rejected requests.
func DenyFunc() auth.DenyFunc {
	return denyUnauthorized
}
