// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package api

import (
	"context"
	"time"

	"github.com/tomtom215/animerec/internal/config"
	"github.com/tomtom215/animerec/internal/recommend"
)

// APIVersion is reported by / and /version.
const APIVersion = "1.0.0"

// Recommender serves recommendations. *recommend.Engine satisfies it.
type Recommender interface {
	Recommend(ctx context.Context, userID, n int) (*recommend.Response, error)
	Info() recommend.ModelInfo
}

// Trainer runs one training cycle. The supervisor's TrainingService
// satisfies it so API-triggered runs share its metrics and logging.
type Trainer interface {
	TrainNow(ctx context.Context) (recommend.TrainingSummary, error)
}

// DataStatus reports on the ingestion database.
type DataStatus interface {
	DataLoaded() bool
	Ping(ctx context.Context) error
}

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(username, password string) error
}

// TokenIssuer issues bearer tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(username string) (string, time.Time, error)
}

// LoginThrottle limits login attempts per username.
type LoginThrottle interface {
	Allow(username string) bool
	Reset(username string)
}

// Dependencies collects what the handlers need. Data, Users, Tokens and
// Limiter may be nil; the endpoints that need them then report an error.
type Dependencies struct {
	Engine       Recommender
	Trainer      Trainer
	Data         DataStatus
	Users        Authenticator
	Tokens       TokenIssuer
	Limiter      LoginThrottle
	CacheBackend string
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: /, /health, /version
//   - handlers_train.go: /train
//   - handlers_recommend.go: /recommend/{userID}, /test
//   - handlers_auth.go: /login
type Handler struct {
	engine       Recommender
	trainer      Trainer
	data         DataStatus
	users        Authenticator
	tokens       TokenIssuer
	limiter      LoginThrottle
	cacheBackend string

	config    *config.Config
	startTime time.Time
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies, cfg *config.Config) *Handler {
	return &Handler{
		engine:       deps.Engine,
		trainer:      deps.Trainer,
		data:         deps.Data,
		users:        deps.Users,
		tokens:       deps.Tokens,
		limiter:      deps.Limiter,
		cacheBackend: deps.CacheBackend,
		config:       cfg,
		startTime:    time.Now(),
	}
}

// requestContext bounds a handler's work by the configured request timeout.
func (h *Handler) requestContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
