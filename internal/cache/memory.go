// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package cache

import (
	"context"
	"time"

	"github.com/tomtom215/animerec/internal/metrics"
	"github.com/tomtom215/animerec/internal/recommend"
)

// Memory is an in-process LRU result cache.
type Memory struct {
	lru *LRU[[]recommend.Recommendation]
}

// NewMemory creates a memory backend holding at most maxEntries results.
func NewMemory(maxEntries int) *Memory {
	return &Memory{lru: NewLRU[[]recommend.Recommendation](maxEntries, 5*time.Minute)}
}

// Name implements Backend.
func (m *Memory) Name() string { return BackendMemory }

// Get implements recommend.ResultCache.
func (m *Memory) Get(_ context.Context, key string) ([]recommend.Recommendation, bool, error) {
	recs, ok := m.lru.Get(key)
	if !ok {
		metrics.RecordCacheOperation(BackendMemory, "get", "miss")
		return nil, false, nil
	}
	metrics.RecordCacheOperation(BackendMemory, "get", "hit")
	return cloneRecs(recs), true, nil
}

// Set implements recommend.ResultCache.
func (m *Memory) Set(_ context.Context, key string, recs []recommend.Recommendation, ttl time.Duration) error {
	m.lru.SetWithTTL(key, cloneRecs(recs), ttl)
	metrics.RecordCacheOperation(BackendMemory, "set", "ok")
	return nil
}

// Maintain sweeps expired entries.
func (m *Memory) Maintain(context.Context) error {
	m.lru.CleanupExpired()
	return nil
}

// Len returns the number of cached results.
func (m *Memory) Len() int { return m.lru.Len() }

// Close implements Backend.
func (m *Memory) Close() error { return nil }
