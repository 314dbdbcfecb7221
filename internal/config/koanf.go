// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/animerec/config.yaml",
	"/etc/animerec/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           5000,
			Host:           "0.0.0.0",
			Timeout:        30 * time.Second,
			RequestTimeout: 15 * time.Second,
			TrainTimeout:   15 * time.Minute,
		},
		Data: DataConfig{
			Dir:               "data",
			RatingFiles:       []string{"rating_1.csv", "rating_2.csv"},
			MergedRatingsFile: "rating.csv",
			ItemsFile:         "anime.csv",
			UsersFile:         "users.json",
			DatabasePath:      ":memory:",
			MaxMemory:         "2GB",
			Threads:           0, // DuckDB default
			UserColumn:        "user_id",
			ItemColumn:        "anime_id",
			RatingColumn:      "rating",
			TitleColumn:       "name",
			GenreColumn:       "genre",
			TypeColumn:        "type",
		},
		Recommend: RecommendConfig{
			MinRatings:      100,
			DefaultN:        10,
			MaxN:            100,
			TestDefaultN:    5,
			MaxTestUsers:    1000,
			Workers:         0, // runtime.NumCPU()
			TrainOnStartup:  false,
			RetrainInterval: 0,
			TrainingTimeout: 10 * time.Minute,
			CacheTTL:        5 * time.Minute,
			ModelDir:        "models",
			ModelName:       "anime_model",
			KeepModels:      5,
		},
		Cache: CacheConfig{
			Backend:      "memory",
			MaxEntries:   10000,
			BadgerPath:   "",
			RedisAddr:    "",
			RedisDB:      0,
			RedisTimeout: 2 * time.Second,
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			AuthRequired:      false,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			LoginAttempts:     5,
			LoginWindow:       time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// RECOMMEND_MIN_RATINGS -> recommend.min_ratings
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"data.rating_files",
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"server_timeout":        "server.timeout",
	"request_timeout":       "server.request_timeout",
	"train_request_timeout": "server.train_timeout",

	// Data
	"data_dir":                 "data.dir",
	"data_rating_files":        "data.rating_files",
	"data_merged_ratings_file": "data.merged_ratings_file",
	"data_items_file":          "data.items_file",
	"data_users_file":          "data.users_file",
	"duckdb_path":              "data.database_path",
	"duckdb_max_memory":        "data.max_memory",
	"duckdb_threads":           "data.threads",

	// Recommendation engine
	"recommend_min_ratings":      "recommend.min_ratings",
	"recommend_default_n":        "recommend.default_n",
	"recommend_max_n":            "recommend.max_n",
	"recommend_test_default_n":   "recommend.test_default_n",
	"recommend_max_test_users":   "recommend.max_test_users",
	"recommend_workers":          "recommend.workers",
	"recommend_train_on_startup": "recommend.train_on_startup",
	"recommend_retrain_interval": "recommend.retrain_interval",
	"recommend_training_timeout": "recommend.training_timeout",
	"recommend_cache_ttl":        "recommend.cache_ttl",
	"recommend_model_dir":        "recommend.model_dir",
	"recommend_model_name":       "recommend.model_name",
	"recommend_keep_models":      "recommend.keep_models",

	// Result cache
	"cache_backend":     "cache.backend",
	"cache_max_entries": "cache.max_entries",
	"cache_badger_path": "cache.badger_path",
	"redis_addr":        "cache.redis_addr",
	"redis_password":    "cache.redis_password",
	"redis_db":          "cache.redis_db",
	"redis_timeout":     "cache.redis_timeout",

	// Security
	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"auth_required":       "security.auth_required",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"login_attempts":      "security.login_attempts",
	"login_window":        "security.login_window",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - RECOMMEND_MIN_RATINGS -> recommend.min_ratings
//   - DUCKDB_PATH -> data.database_path
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables
	// cannot pollute the config.
	return ""
}
