// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Note: This package has no dependencies on other internal packages.
// DataProvider and ModelStore let the database and storage layers plug in
// without import cycles.

// DataProvider supplies training data.
type DataProvider interface {
	// LoadRatings returns every rating record.
	LoadRatings(ctx context.Context) ([]Rating, error)

	// LoadItems returns the item catalog.
	LoadItems(ctx context.Context) ([]Item, error)
}

// ModelStore persists trained models across restarts.
type ModelStore interface {
	// SaveModel writes a model snapshot.
	SaveModel(ctx context.Context, state *ModelState) error

	// LoadLatestModel returns the newest snapshot, or nil when none exists.
	LoadLatestModel(ctx context.Context) (*ModelState, error)
}

// Response is the result of a recommendation request.
type Response struct {
	UserID          int              `json:"user_id"`
	Recommendations []Recommendation `json:"recommendations"`
	Fallback        bool             `json:"fallback"`
	CacheHit        bool             `json:"cache_hit"`
	ModelID         string           `json:"model_id"`
	ModelVersion    int              `json:"model_version"`
	LatencyMS       int64            `json:"latency_ms"`
}

// Engine serves recommendations from the current TrainedModel and replaces
// it atomically on retraining. It is safe for concurrent use: readers never
// block, and at most one training run executes at a time.
type Engine struct {
	config *Config
	logger zerolog.Logger

	current atomic.Pointer[TrainedModel]
	trainMu sync.Mutex
	version atomic.Int32

	dataProvider DataProvider
	modelStore   ModelStore
	cache        ResultCache

	requestCount  atomic.Int64
	fallbackCount atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	errorCount    atomic.Int64
	trainingRuns  atomic.Int64
	lastTrainMS   atomic.Int64
	lastTrainErr  atomic.Pointer[string]
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		config: cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
	}
	if cfg.Cache.Enabled {
		e.cache = NewMemoryCache(cfg.Cache.MaxEntries)
	}
	return e, nil
}

// SetDataProvider sets the source of training data.
func (e *Engine) SetDataProvider(dp DataProvider) {
	e.dataProvider = dp
}

// SetModelStore sets where trained models are persisted.
func (e *Engine) SetModelStore(store ModelStore) {
	e.modelStore = store
}

// SetCache replaces the result cache. Passing nil disables caching.
func (e *Engine) SetCache(c ResultCache) {
	e.cache = c
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Train loads data from the DataProvider and publishes a new model.
func (e *Engine) Train(ctx context.Context) (TrainingSummary, error) {
	if e.dataProvider == nil {
		return TrainingSummary{}, fmt.Errorf("data provider not set")
	}
	if !e.trainMu.TryLock() {
		return TrainingSummary{}, ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	trainCtx, cancel := context.WithTimeout(ctx, e.config.TrainingTimeout)
	defer cancel()

	ratings, err := e.dataProvider.LoadRatings(trainCtx)
	if err != nil {
		e.recordTrainingError(err)
		return TrainingSummary{}, fmt.Errorf("load ratings: %w", err)
	}

	items, err := e.dataProvider.LoadItems(trainCtx)
	if err != nil {
		e.recordTrainingError(err)
		return TrainingSummary{}, fmt.Errorf("load items: %w", err)
	}

	return e.trainLocked(trainCtx, ratings, items)
}

// TrainWith builds and publishes a model from the given data.
func (e *Engine) TrainWith(ctx context.Context, ratings []Rating, items []Item) (TrainingSummary, error) {
	if !e.trainMu.TryLock() {
		return TrainingSummary{}, ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	return e.trainLocked(ctx, ratings, items)
}

// trainLocked must be called with trainMu held.
func (e *Engine) trainLocked(ctx context.Context, ratings []Rating, items []Item) (TrainingSummary, error) {
	start := time.Now()
	e.trainingRuns.Add(1)
	e.logger.Info().
		Int("ratings", len(ratings)).
		Int("items", len(items)).
		Int("min_ratings", e.config.MinRatings).
		Msg("starting model training")

	model, err := NewTrainedModel(ratings, items, ModelOptions{
		MinRatings: e.config.MinRatings,
		Workers:    e.config.Workers,
	})
	if err != nil {
		e.recordTrainingError(err)
		return TrainingSummary{}, err
	}

	if err := ctx.Err(); err != nil {
		e.recordTrainingError(err)
		return TrainingSummary{}, fmt.Errorf("training aborted: %w", err)
	}

	model.id = uuid.New().String()
	model.version = int(e.version.Add(1))
	e.current.Store(model)

	e.lastTrainMS.Store(time.Since(start).Milliseconds())
	e.lastTrainErr.Store(nil)

	e.logger.Info().
		Str("model_id", model.id).
		Int("version", model.version).
		Int("matrix_users", model.summary.MatrixUsers).
		Int("matrix_items", model.summary.MatrixItems).
		Int64("duration_ms", e.lastTrainMS.Load()).
		Msg("model training complete")

	e.persist(ctx, model)

	return model.summary, nil
}

// persist saves the model if a store is configured. Failures are logged and
// do not affect the published model.
func (e *Engine) persist(ctx context.Context, model *TrainedModel) {
	if e.modelStore == nil {
		return
	}
	state := model.State()
	if err := e.modelStore.SaveModel(ctx, &state); err != nil {
		e.logger.Warn().Err(err).Str("model_id", model.id).Msg("failed to persist model")
	}
}

func (e *Engine) recordTrainingError(err error) {
	msg := err.Error()
	e.lastTrainErr.Store(&msg)
	e.logger.Error().Err(err).Msg("model training failed")
}

// LoadLatest restores the newest persisted model. It reports false when the
// store holds no model.
func (e *Engine) LoadLatest(ctx context.Context) (bool, error) {
	if e.modelStore == nil {
		return false, nil
	}

	state, err := e.modelStore.LoadLatestModel(ctx)
	if err != nil {
		return false, fmt.Errorf("load latest model: %w", err)
	}
	if state == nil {
		return false, nil
	}

	model, err := RestoreModel(*state, e.config.Workers)
	if err != nil {
		return false, err
	}

	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	// Keep versions monotonic across restarts.
	if model.version == 0 {
		model.version = int(e.version.Add(1))
	} else if v := int32(model.version); v > e.version.Load() { //nolint:gosec // versions stay far below MaxInt32
		e.version.Store(v)
	}
	e.current.Store(model)

	e.logger.Info().
		Str("model_id", model.id).
		Int("version", model.version).
		Time("trained_at", model.trainedAt).
		Msg("loaded persisted model")

	return true, nil
}

// Model returns the current model, or nil before the first training.
func (e *Engine) Model() *TrainedModel {
	return e.current.Load()
}

// IsTrained reports whether a model is available.
func (e *Engine) IsTrained() bool {
	return e.current.Load() != nil
}

// Recommend returns up to n recommendations for userID from the current model.
func (e *Engine) Recommend(ctx context.Context, userID, n int) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	model := e.current.Load()
	if model == nil {
		e.errorCount.Add(1)
		return nil, ErrModelNotTrained
	}

	logger := e.logger.With().
		Int("user_id", userID).
		Int("n", n).
		Str("model_id", model.id).
		Logger()

	resp := &Response{
		UserID:       userID,
		ModelID:      model.id,
		ModelVersion: model.version,
	}

	key := CacheKey(model.id, userID, n)
	if recs, ok := e.cacheGet(ctx, key, logger); ok {
		resp.Recommendations = recs
		resp.CacheHit = true
		resp.Fallback = len(recs) > 0 && recs[0].IsFallback
		resp.LatencyMS = time.Since(start).Milliseconds()
		if resp.Fallback {
			e.fallbackCount.Add(1)
		}
		logger.Debug().Msg("cache hit")
		return resp, nil
	}

	recs, fallback, err := model.recommend(ctx, userID, n)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			e.errorCount.Add(1)
		}
		return nil, err
	}

	if fallback {
		e.fallbackCount.Add(1)
		logger.Debug().Msg("similarity signal degenerate, using popularity fallback")
	}

	e.cacheSet(ctx, key, recs, logger)

	resp.Recommendations = recs
	resp.Fallback = fallback
	resp.LatencyMS = time.Since(start).Milliseconds()

	logger.Debug().
		Int("returned", len(recs)).
		Bool("fallback", fallback).
		Int64("latency_ms", resp.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) cacheGet(ctx context.Context, key string, logger zerolog.Logger) ([]Recommendation, bool) {
	if e.cache == nil {
		return nil, false
	}
	recs, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Msg("cache read failed")
	}
	if !ok || err != nil {
		e.cacheMisses.Add(1)
		return nil, false
	}
	e.cacheHits.Add(1)
	return recs, true
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) cacheSet(ctx context.Context, key string, recs []Recommendation, logger zerolog.Logger) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, key, recs, e.config.Cache.TTL); err != nil {
		logger.Warn().Err(err).Msg("cache write failed")
	}
}

// Info describes the current model.
func (e *Engine) Info() ModelInfo {
	model := e.current.Load()
	if model == nil {
		return ModelInfo{}
	}
	return ModelInfo{
		Trained:   true,
		Version:   model.version,
		ModelID:   model.id,
		TrainedAt: model.trainedAt,
		Summary:   model.summary,
	}
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Requests:     e.requestCount.Load(),
		Fallbacks:    e.fallbackCount.Load(),
		CacheHits:    e.cacheHits.Load(),
		CacheMisses:  e.cacheMisses.Load(),
		Errors:       e.errorCount.Load(),
		TrainingRuns: e.trainingRuns.Load(),
		LastTrainMS:  e.lastTrainMS.Load(),
	}
	if msg := e.lastTrainErr.Load(); msg != nil {
		s.TrainingError = *msg
	}
	if model := e.current.Load(); model != nil {
		s.ModelVersion = model.version
		s.MatrixUsers = model.matrix.NumUsers()
		s.MatrixItems = model.matrix.NumItems()
		s.CatalogItems = len(model.items)
		s.RawRatings = model.rawRatings
	}
	return s
}
