// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ResultCache stores recommendation results between requests.
//
// Keys embed the model ID, so entries written for a replaced model are never
// read again and simply age out.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]Recommendation, bool, error)
	Set(ctx context.Context, key string, recs []Recommendation, ttl time.Duration) error
}

// CacheKey builds the cache key for a model, user and result size.
func CacheKey(modelID string, userID, n int) string {
	return fmt.Sprintf("rec:%s:u%d:n%d", modelID, userID, n)
}

// MemoryCache is an in-process ResultCache with TTL expiry and a size cap.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	maxEntries int
}

// cacheEntry holds a cached recommendation list.
type cacheEntry struct {
	recs      []Recommendation
	expiresAt time.Time
}

// NewMemoryCache creates an in-memory cache holding at most maxEntries.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &MemoryCache{
		entries:    make(map[string]cacheEntry),
		maxEntries: maxEntries,
	}
}

// Get returns a copy of the cached list if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]Recommendation, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return append([]Recommendation(nil), entry.recs...), true, nil
}

// Set stores a copy of recs under key.
func (c *MemoryCache) Set(_ context.Context, key string, recs []Recommendation, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}

	c.entries[key] = cacheEntry{
		recs:      append([]Recommendation(nil), recs...),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictLocked drops expired entries, or the entry closest to expiry when
// nothing has expired. Must be called with mu held.
func (c *MemoryCache) evictLocked() {
	now := time.Now()
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			continue
		}
		if oldestKey == "" || entry.expiresAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.expiresAt
		}
	}
	if len(c.entries) >= c.maxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
