// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package models

import (
	"time"

	"github.com/tomtom215/animerec/internal/recommend"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error codes used in APIError.Code.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeModelNotTrained    = "MODEL_NOT_TRAINED"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeTrainingInProgress = "TRAINING_IN_PROGRESS"
	ErrCodeDataNotFound       = "DATA_NOT_FOUND"
	ErrCodeAuthentication     = "AUTHENTICATION_ERROR"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// APIResponse is the envelope returned by every JSON endpoint.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Success wraps data in a success envelope stamped with the current time.
func Success(data interface{}) *APIResponse {
	return &APIResponse{
		Status:   StatusSuccess,
		Data:     data,
		Metadata: Metadata{Timestamp: time.Now().UTC()},
	}
}

// Failure builds an error envelope.
func Failure(code, message string, details map[string]interface{}) *APIResponse {
	return &APIResponse{
		Status:   StatusError,
		Metadata: Metadata{Timestamp: time.Now().UTC()},
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// IndexResponse lists the service endpoints.
type IndexResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse reports service readiness.
type HealthResponse struct {
	Status       string    `json:"status"`
	ModelLoaded  bool      `json:"model_loaded"`
	ModelTrained bool      `json:"model_trained"`
	DataLoaded   bool      `json:"data_loaded"`
	Database     string    `json:"database"`
	CacheBackend string    `json:"cache_backend"`
	Timestamp    time.Time `json:"timestamp"`
}

// VersionResponse describes the served model and the API build.
type VersionResponse struct {
	ModelVersion   int        `json:"model_version"`
	ModelID        string     `json:"model_id,omitempty"`
	ModelTimestamp *time.Time `json:"model_timestamp"`
	ModelLoaded    bool       `json:"model_loaded"`
	ModelTrained   bool       `json:"model_trained"`
	APIVersion     string     `json:"api_version"`
	GoVersion      string     `json:"go_version,omitempty"`
}

// TrainResponse is returned by /train.
type TrainResponse struct {
	Message      string                    `json:"message"`
	Summary      recommend.TrainingSummary `json:"summary"`
	ModelVersion int                       `json:"model_version"`
	ModelID      string                    `json:"model_id"`
	DurationMS   int64                     `json:"duration_ms"`
	Timestamp    time.Time                 `json:"timestamp"`
}

// RecommendResponse is returned by /recommend/{userID}.
type RecommendResponse struct {
	UserID          int                        `json:"user_id"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Count           int                        `json:"count"`
	Fallback        bool                       `json:"fallback"`
	ModelVersion    int                        `json:"model_version"`
	Timestamp       time.Time                  `json:"timestamp"`
}

// LoginRequest is the /login body.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Message   string    `json:"message"`
	User      string    `json:"user"`
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TestRequest is the /test body. NRecommendations defaults when omitted.
type TestRequest struct {
	TestUsers        []int `json:"test_users" validate:"required,min=1"`
	NRecommendations *int  `json:"n_recommendations" validate:"omitempty,min=0"`
}

// TestUserResult is the outcome for one user in a batch test.
type TestUserResult struct {
	UserID          int                        `json:"user_id"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Status          string                     `json:"status"`
	Message         string                     `json:"message,omitempty"`
}

// TestMetrics summarizes a batch test.
type TestMetrics struct {
	TotalUsersTested          int     `json:"total_users_tested"`
	SuccessfulRecommendations int     `json:"successful_recommendations"`
	SuccessRate               float64 `json:"success_rate"`
}

// TestResponse is returned by /test.
type TestResponse struct {
	TestResults []TestUserResult `json:"test_results"`
	Metrics     TestMetrics      `json:"metrics"`
}
