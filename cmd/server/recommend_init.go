// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/animerec/internal/cache"
	"github.com/tomtom215/animerec/internal/config"
	"github.com/tomtom215/animerec/internal/database"
	"github.com/tomtom215/animerec/internal/metrics"
	"github.com/tomtom215/animerec/internal/recommend"
	"github.com/tomtom215/animerec/internal/recommend/storage"
)

// modelLoadTimeout bounds restoring the persisted model at startup.
const modelLoadTimeout = 2 * time.Minute

// buildEngineConfig maps application config onto the engine's config.
func buildEngineConfig(cfg *config.Config) *recommend.Config {
	engineCfg := recommend.DefaultConfig()
	engineCfg.MinRatings = cfg.Recommend.MinRatings
	engineCfg.Workers = cfg.Recommend.Workers
	if cfg.Recommend.TrainingTimeout > 0 {
		engineCfg.TrainingTimeout = cfg.Recommend.TrainingTimeout
	}

	engineCfg.Cache.Enabled = cfg.Recommend.CacheTTL > 0
	engineCfg.Cache.TTL = cfg.Recommend.CacheTTL
	if cfg.Cache.MaxEntries > 0 {
		engineCfg.Cache.MaxEntries = cfg.Cache.MaxEntries
	}
	return engineCfg
}

// initRecommend builds the engine, attaches the data source, the result
// cache and model persistence, and restores the latest snapshot.
// backend may be nil when result caching is disabled.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initRecommend(ctx context.Context, cfg *config.Config, db *database.DB, backend cache.Backend, logger zerolog.Logger) (*recommend.Engine, error) {
	engine, err := recommend.NewEngine(buildEngineConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("create recommendation engine: %w", err)
	}
	engine.SetDataProvider(db)

	if backend != nil {
		engine.SetCache(backend)
	} else {
		engine.SetCache(nil)
	}

	if cfg.Recommend.ModelDir == "" {
		logger.Info().Msg("model persistence disabled (RECOMMEND_MODEL_DIR empty)")
		return engine, nil
	}

	store, err := storage.NewStore(cfg.Recommend.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("open model store: %w", err)
	}
	engine.SetModelStore(storage.NewRecommendStore(store, cfg.Recommend.ModelName, cfg.Recommend.KeepModels))

	loadCtx, cancel := context.WithTimeout(ctx, modelLoadTimeout)
	defer cancel()

	loaded, err := engine.LoadLatest(loadCtx)
	switch {
	case err != nil:
		// A corrupt snapshot must not keep the service down; /train replaces it.
		logger.Warn().Err(err).Str("model_dir", cfg.Recommend.ModelDir).Msg("could not load persisted model")
	case loaded:
		info := engine.Info()
		metrics.SetModel(info.Version, info.Summary.MatrixUsers, info.Summary.MatrixItems)
	default:
		logger.Info().Msg("no persisted model found, train with /train")
	}

	return engine, nil
}
