// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package config

import (
	"fmt"
	"strings"
)

// Minimum JWT secret length when authentication is required.
const minJWTSecretLength = 32

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateData(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", c.Server.RequestTimeout)
	}
	if c.Server.TrainTimeout <= 0 {
		return fmt.Errorf("TRAIN_REQUEST_TIMEOUT must be positive, got %v", c.Server.TrainTimeout)
	}
	return nil
}

func (c *Config) validateData() error {
	if c.Data.MergedRatingsFile == "" {
		return fmt.Errorf("DATA_MERGED_RATINGS_FILE is required")
	}
	if c.Data.ItemsFile == "" {
		return fmt.Errorf("DATA_ITEMS_FILE is required")
	}
	if c.Data.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative, got %d", c.Data.Threads)
	}
	for name, col := range map[string]string{
		"user_column":   c.Data.UserColumn,
		"item_column":   c.Data.ItemColumn,
		"rating_column": c.Data.RatingColumn,
		"title_column":  c.Data.TitleColumn,
		"genre_column":  c.Data.GenreColumn,
		"type_column":   c.Data.TypeColumn,
	} {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("data.%s must not be empty", name)
		}
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.MinRatings < 1 {
		return fmt.Errorf("RECOMMEND_MIN_RATINGS must be at least 1, got %d", r.MinRatings)
	}
	if r.DefaultN < 1 {
		return fmt.Errorf("RECOMMEND_DEFAULT_N must be at least 1, got %d", r.DefaultN)
	}
	if r.MaxN < r.DefaultN {
		return fmt.Errorf("RECOMMEND_MAX_N (%d) must be >= RECOMMEND_DEFAULT_N (%d)", r.MaxN, r.DefaultN)
	}
	if r.TestDefaultN < 1 {
		return fmt.Errorf("RECOMMEND_TEST_DEFAULT_N must be at least 1, got %d", r.TestDefaultN)
	}
	if r.MaxTestUsers < 1 {
		return fmt.Errorf("RECOMMEND_MAX_TEST_USERS must be at least 1, got %d", r.MaxTestUsers)
	}
	if r.Workers < 0 {
		return fmt.Errorf("RECOMMEND_WORKERS must be non-negative, got %d", r.Workers)
	}
	if r.RetrainInterval < 0 {
		return fmt.Errorf("RECOMMEND_RETRAIN_INTERVAL must be non-negative, got %v", r.RetrainInterval)
	}
	if r.TrainingTimeout <= 0 {
		return fmt.Errorf("RECOMMEND_TRAINING_TIMEOUT must be positive, got %v", r.TrainingTimeout)
	}
	if r.CacheTTL < 0 {
		return fmt.Errorf("RECOMMEND_CACHE_TTL must be non-negative, got %v", r.CacheTTL)
	}
	if r.ModelDir != "" {
		if r.ModelName == "" {
			return fmt.Errorf("RECOMMEND_MODEL_NAME is required when RECOMMEND_MODEL_DIR is set")
		}
		if r.KeepModels < 1 {
			return fmt.Errorf("RECOMMEND_KEEP_MODELS must be at least 1, got %d", r.KeepModels)
		}
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "memory":
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("CACHE_MAX_ENTRIES must be at least 1, got %d", c.Cache.MaxEntries)
		}
	case "badger":
		if c.Cache.BadgerPath == "" {
			return fmt.Errorf("CACHE_BADGER_PATH is required when CACHE_BACKEND=badger")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
		if c.Cache.RedisTimeout <= 0 {
			return fmt.Errorf("REDIS_TIMEOUT must be positive, got %v", c.Cache.RedisTimeout)
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of memory, badger, redis, got %q", c.Cache.Backend)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := c.Security
	if s.AuthRequired {
		if len(s.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters when AUTH_REQUIRED=true", minJWTSecretLength)
		}
		if c.Data.UsersFile == "" {
			return fmt.Errorf("DATA_USERS_FILE is required when AUTH_REQUIRED=true")
		}
	}
	if s.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive, got %v", s.SessionTimeout)
	}
	if !s.RateLimitDisabled {
		if s.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", s.RateLimitReqs)
		}
		if s.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", s.RateLimitWindow)
		}
	}
	if s.LoginAttempts < 1 {
		return fmt.Errorf("LOGIN_ATTEMPTS must be at least 1, got %d", s.LoginAttempts)
	}
	if s.LoginWindow <= 0 {
		return fmt.Errorf("LOGIN_WINDOW must be positive, got %v", s.LoginWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
