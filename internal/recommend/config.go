// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package recommend

import (
	"fmt"
	"time"
)

// DefaultMinRatings is the activity threshold used when none is configured.
const DefaultMinRatings = 100

// Config contains all configuration for the recommendation engine.
type Config struct {
	// MinRatings is the minimum number of ratings a user and an item need
	// to enter the matrix.
	MinRatings int `json:"min_ratings"`

	// Workers bounds the goroutines used per similarity pass.
	// Zero means runtime.NumCPU().
	Workers int `json:"workers"`

	// TrainingTimeout bounds data loading and matrix construction.
	TrainingTimeout time.Duration `json:"training_timeout"`

	// Cache contains result caching parameters.
	Cache CacheConfig `json:"cache"`
}

// CacheConfig configures recommendation result caching.
type CacheConfig struct {
	// Enabled turns result caching on.
	Enabled bool `json:"enabled"`

	// TTL is how long a cached result stays valid.
	TTL time.Duration `json:"ttl"`

	// MaxEntries caps the in-memory cache. Ignored by external backends.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		MinRatings:      DefaultMinRatings,
		Workers:         0,
		TrainingTimeout: 10 * time.Minute,
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MinRatings < 1 {
		return fmt.Errorf("min_ratings must be at least 1, got %d", c.MinRatings)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.TrainingTimeout <= 0 {
		return fmt.Errorf("training_timeout must be positive, got %s", c.TrainingTimeout)
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive when caching is enabled")
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be at least 1, got %d", c.Cache.MaxEntries)
		}
	}
	return nil
}
