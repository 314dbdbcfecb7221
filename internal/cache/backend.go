// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package cache

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/animerec/internal/config"
	"github.com/tomtom215/animerec/internal/recommend"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// Backend is a recommendation result cache with a lifecycle.
type Backend interface {
	recommend.ResultCache

	// Name identifies the backend in logs and metrics.
	Name() string

	// Maintain performs periodic housekeeping (expired entry sweeps,
	// value-log GC). It is safe to call concurrently with Get and Set.
	Maintain(ctx context.Context) error

	Close() error
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.CacheConfig) (Backend, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(cfg.MaxEntries), nil
	case BackendBadger:
		return OpenBadger(cfg.BadgerPath)
	case BackendRedis:
		return NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Timeout:  cfg.RedisTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// encode and decode are the wire format shared by the external backends.
func encode(recs []recommend.Recommendation) ([]byte, error) {
	data, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("marshal recommendations: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]recommend.Recommendation, error) {
	var recs []recommend.Recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	return recs, nil
}

func cloneRecs(recs []recommend.Recommendation) []recommend.Recommendation {
	if recs == nil {
		return nil
	}
	out := make([]recommend.Recommendation, len(recs))
	copy(out, recs)
	return out
}
