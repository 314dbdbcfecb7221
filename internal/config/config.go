// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting via environment variables
//
// Config is immutable after LoadWithKoanf() and safe for concurrent read
// access from multiple goroutines.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Data      DataConfig      `koanf:"data"`
	Recommend RecommendConfig `koanf:"recommend"`
	Cache     CacheConfig     `koanf:"cache"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	// RequestTimeout bounds a single non-training request.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// TrainTimeout bounds a /train request, including data load.
	TrainTimeout time.Duration `koanf:"train_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DataConfig locates the rating, catalog and user files and configures the
// DuckDB instance used to ingest them.
type DataConfig struct {
	// Dir is the directory all relative file names below are resolved against.
	Dir string `koanf:"dir"`

	// RatingFiles are the rating parts merged into MergedRatingsFile when it
	// does not exist yet.
	RatingFiles []string `koanf:"rating_files"`

	// MergedRatingsFile is the cached concatenation of RatingFiles.
	MergedRatingsFile string `koanf:"merged_ratings_file"`

	// ItemsFile is the catalog CSV (anime_id,name,genre,type).
	ItemsFile string `koanf:"items_file"`

	// UsersFile is the JSON credentials file used by /login.
	UsersFile string `koanf:"users_file"`

	// DatabasePath is the DuckDB file. Empty or ":memory:" uses an in-memory database.
	DatabasePath string `koanf:"database_path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`

	// Column names in the rating and catalog files.
	UserColumn   string `koanf:"user_column"`
	ItemColumn   string `koanf:"item_column"`
	RatingColumn string `koanf:"rating_column"`
	TitleColumn  string `koanf:"title_column"`
	GenreColumn  string `koanf:"genre_column"`
	TypeColumn   string `koanf:"type_column"`
}

// Path resolves name against Dir unless it is already absolute.
func (d DataConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// RecommendConfig configures the recommendation engine.
type RecommendConfig struct {
	// MinRatings is the minimum number of ratings a user and an item each
	// need to enter the training matrix.
	MinRatings int `koanf:"min_ratings"`

	// DefaultN is the number of recommendations returned when n is omitted.
	DefaultN int `koanf:"default_n"`

	// MaxN caps the n query parameter.
	MaxN int `koanf:"max_n"`

	// TestDefaultN is the per-user count used by the batch test endpoint.
	TestDefaultN int `koanf:"test_default_n"`

	// MaxTestUsers caps the batch test size.
	MaxTestUsers int `koanf:"max_test_users"`

	// Workers is the similarity worker count. 0 means runtime.NumCPU().
	Workers int `koanf:"workers"`

	TrainOnStartup  bool          `koanf:"train_on_startup"`
	RetrainInterval time.Duration `koanf:"retrain_interval"` // 0 disables periodic retraining
	TrainingTimeout time.Duration `koanf:"training_timeout"`
	CacheTTL        time.Duration `koanf:"cache_ttl"` // 0 disables result caching

	// ModelDir holds persisted model snapshots. Empty disables persistence.
	ModelDir   string `koanf:"model_dir"`
	ModelName  string `koanf:"model_name"`
	KeepModels int    `koanf:"keep_models"`
}

// CacheConfig selects the recommendation result cache backend.
type CacheConfig struct {
	// Backend is one of: memory, badger, redis.
	Backend    string `koanf:"backend"`
	MaxEntries int    `koanf:"max_entries"`

	BadgerPath string `koanf:"badger_path"`

	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	RedisTimeout  time.Duration `koanf:"redis_timeout"`
}

// SecurityConfig configures authentication and request limiting.
type SecurityConfig struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// AuthRequired protects /train with a bearer token from /login.
	AuthRequired bool `koanf:"auth_required"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// LoginAttempts per LoginWindow per username.
	LoginAttempts int           `koanf:"login_attempts"`
	LoginWindow   time.Duration `koanf:"login_window"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}
