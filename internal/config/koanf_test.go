// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Recommend.MinRatings != 100 {
		t.Errorf("Recommend.MinRatings = %d, want 100", cfg.Recommend.MinRatings)
	}
	if cfg.Recommend.DefaultN != 10 {
		t.Errorf("Recommend.DefaultN = %d, want 10", cfg.Recommend.DefaultN)
	}
	if cfg.Recommend.TestDefaultN != 5 {
		t.Errorf("Recommend.TestDefaultN = %d, want 5", cfg.Recommend.TestDefaultN)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Data.RatingFiles, []string{"rating_1.csv", "rating_2.csv"}) {
		t.Errorf("Data.RatingFiles = %v", cfg.Data.RatingFiles)
	}
	if cfg.Data.MergedRatingsFile != "rating.csv" {
		t.Errorf("Data.MergedRatingsFile = %q, want rating.csv", cfg.Data.MergedRatingsFile)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"RECOMMEND_MIN_RATINGS", "recommend.min_ratings"},
		{"recommend_min_ratings", "recommend.min_ratings"},
		{"HTTP_PORT", "server.port"},
		{"DUCKDB_PATH", "data.database_path"},
		{"REDIS_ADDR", "cache.redis_addr"},
		{"DISABLE_RATE_LIMIT", "security.rate_limit_disabled"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

// envMappings must only point at paths that exist in the defaults, otherwise
// the variable is silently ignored on unmarshal.
func TestEnvMappingsTargetKnownPaths(t *testing.T) {
	t.Parallel()

	known := make(map[string]bool)
	collectKoanfPaths(reflect.TypeOf(Config{}), "", known)

	for env, path := range envMappings {
		if !known[path] {
			t.Errorf("env %q maps to unknown path %q", env, path)
		}
	}
}

func collectKoanfPaths(typ reflect.Type, prefix string, out map[string]bool) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("koanf")
		if tag == "" {
			continue
		}
		path := tag
		if prefix != "" {
			path = prefix + "." + tag
		}
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
			collectKoanfPaths(f.Type, path, out)
			continue
		}
		out[path] = true
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("RECOMMEND_MIN_RATINGS", "3")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("RECOMMEND_CACHE_TTL", "90s")
	t.Setenv("DATA_RATING_FILES", "a.csv, b.csv ,c.csv")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DISABLE_RATE_LIMIT", "true")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Recommend.MinRatings != 3 {
		t.Errorf("MinRatings = %d, want 3", cfg.Recommend.MinRatings)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Recommend.CacheTTL != 90*time.Second {
		t.Errorf("CacheTTL = %v, want 90s", cfg.Recommend.CacheTTL)
	}
	if !reflect.DeepEqual(cfg.Data.RatingFiles, []string{"a.csv", "b.csv", "c.csv"}) {
		t.Errorf("RatingFiles = %v", cfg.Data.RatingFiles)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if !cfg.Security.RateLimitDisabled {
		t.Error("RateLimitDisabled should be true")
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"recommend:",
		"  min_ratings: 20",
		"  default_n: 7",
		"cache:",
		"  backend: badger",
		"  badger_path: /tmp/cache",
		"logging:",
		"  level: debug",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	// Environment wins over the file.
	t.Setenv("RECOMMEND_MIN_RATINGS", "30")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Recommend.MinRatings != 30 {
		t.Errorf("MinRatings = %d, want 30 (env override)", cfg.Recommend.MinRatings)
	}
	if cfg.Recommend.DefaultN != 7 {
		t.Errorf("DefaultN = %d, want 7", cfg.Recommend.DefaultN)
	}
	if cfg.Cache.Backend != "badger" || cfg.Cache.BadgerPath != "/tmp/cache" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched values keep their defaults.
	if cfg.Recommend.TestDefaultN != 5 {
		t.Errorf("TestDefaultN = %d, want 5", cfg.Recommend.TestDefaultN)
	}
}

func TestLoadWithKoanf_InvalidMinRatings(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("RECOMMEND_MIN_RATINGS", "0")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("expected validation error for RECOMMEND_MIN_RATINGS=0")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"missing items file", func(c *Config) { c.Data.ItemsFile = "" }, "DATA_ITEMS_FILE"},
		{"empty column", func(c *Config) { c.Data.UserColumn = " " }, "user_column"},
		{"min ratings zero", func(c *Config) { c.Recommend.MinRatings = 0 }, "RECOMMEND_MIN_RATINGS"},
		{"max n below default", func(c *Config) { c.Recommend.MaxN = 5 }, "RECOMMEND_MAX_N"},
		{"negative workers", func(c *Config) { c.Recommend.Workers = -1 }, "RECOMMEND_WORKERS"},
		{"keep models zero", func(c *Config) { c.Recommend.KeepModels = 0 }, "RECOMMEND_KEEP_MODELS"},
		{"persistence disabled ignores keep", func(c *Config) {
			c.Recommend.ModelDir = ""
			c.Recommend.KeepModels = 0
		}, ""},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "CACHE_BACKEND"},
		{"badger without path", func(c *Config) { c.Cache.Backend = "badger" }, "CACHE_BADGER_PATH"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }, "REDIS_ADDR"},
		{"auth with short secret", func(c *Config) {
			c.Security.AuthRequired = true
			c.Security.JWTSecret = "short"
		}, "JWT_SECRET"},
		{"auth with long secret", func(c *Config) {
			c.Security.AuthRequired = true
			c.Security.JWTSecret = strings.Repeat("x", 32)
		}, ""},
		{"rate limit disabled skips window", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitWindow = 0
		}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDataConfigPath(t *testing.T) {
	t.Parallel()

	d := DataConfig{Dir: "/srv/data"}
	if got := d.Path("rating.csv"); got != filepath.Join("/srv/data", "rating.csv") {
		t.Errorf("Path(relative) = %q", got)
	}
	if got := d.Path("/abs/anime.csv"); got != "/abs/anime.csv" {
		t.Errorf("Path(absolute) = %q", got)
	}
	if got := d.Path(""); got != "" {
		t.Errorf("Path(empty) = %q", got)
	}
}
