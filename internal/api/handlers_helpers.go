// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/animerec/internal/database"
	"github.com/tomtom215/animerec/internal/logging"
	"github.com/tomtom215/animerec/internal/models"
	"github.com/tomtom215/animerec/internal/recommend"
	"github.com/tomtom215/animerec/internal/validation"
)

// maxBodyBytes bounds request bodies for /login and /test.
const maxBodyBytes = 1 << 20

// respondJSON writes response as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess writes data in a success envelope.
func respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, models.Success(data))
}

// respondError writes an error envelope. err is logged, never returned to
// the client.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}
	respondJSON(w, status, models.Failure(code, message, nil))
}

// respondAPIError writes a structured validation error.
func respondAPIError(w http.ResponseWriter, status int, apiErr *models.APIError) {
	respondJSON(w, status, models.Failure(apiErr.Code, apiErr.Message, apiErr.Details))
}

// sanitizeLogValue strips line breaks so client-controlled text cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes.
//
//	var req models.LoginRequest
//	if apiErr := validateRequest(&req); apiErr != nil {
//	    respondAPIError(w, http.StatusBadRequest, apiErr)
//	    return
//	}
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// getIntParam extracts an integer query parameter. Missing or non-integer
// values yield defaultValue.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// engineError maps recommendation and data errors to an HTTP status,
// error code and client message.
func engineError(err error) (int, string, string) {
	var notFound *recommend.UserNotFoundError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, models.ErrCodeUserNotFound, notFound.Error()
	case errors.Is(err, recommend.ErrUserNotFound):
		return http.StatusNotFound, models.ErrCodeUserNotFound, "User not found in model"
	case errors.Is(err, recommend.ErrModelNotTrained):
		return http.StatusBadRequest, models.ErrCodeModelNotTrained, "Model not trained. Train it first with /train."
	case errors.Is(err, recommend.ErrInvalidInput):
		return http.StatusBadRequest, models.ErrCodeInvalidInput, err.Error()
	case errors.Is(err, recommend.ErrTrainingInProgress):
		return http.StatusConflict, models.ErrCodeTrainingInProgress, "A training run is already in progress"
	case errors.Is(err, database.ErrDataNotFound):
		return http.StatusInternalServerError, models.ErrCodeDataNotFound, "Could not load data files. Check the CSV files."
	default:
		return http.StatusInternalServerError, models.ErrCodeInternal, "Internal server error"
	}
}

// respondEngineError writes the envelope for err. Only 5xx errors are
// logged at error level.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := engineError(err)
	if status >= http.StatusInternalServerError {
		respondError(w, status, code, message, err)
		return
	}
	logging.Ctx(r.Context()).Debug().Err(err).Str("code", code).Msg("request rejected")
	respondError(w, status, code, message, nil)
}
