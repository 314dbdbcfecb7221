// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

/*
Package config provides centralized configuration management for Animerec.

Configuration is layered with Koanf v2: struct defaults, then an optional YAML
file (CONFIG_PATH, ./config.yaml or /etc/animerec/config.yaml), then
environment variables. Only explicitly mapped environment variables are read.

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT (default 0.0.0.0:5000)
  - SERVER_TIMEOUT, REQUEST_TIMEOUT, TRAIN_REQUEST_TIMEOUT

Data:
  - DATA_DIR (default: data)
  - DATA_RATING_FILES: comma-separated rating parts (default: rating_1.csv,rating_2.csv)
  - DATA_MERGED_RATINGS_FILE (default: rating.csv)
  - DATA_ITEMS_FILE (default: anime.csv)
  - DATA_USERS_FILE (default: users.json)
  - DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS

Recommendation:
  - RECOMMEND_MIN_RATINGS: minimum ratings per user and item (default: 100)
  - RECOMMEND_DEFAULT_N, RECOMMEND_MAX_N, RECOMMEND_TEST_DEFAULT_N
  - RECOMMEND_WORKERS: similarity workers (default: NumCPU)
  - RECOMMEND_TRAIN_ON_STARTUP, RECOMMEND_RETRAIN_INTERVAL
  - RECOMMEND_CACHE_TTL, RECOMMEND_MODEL_DIR, RECOMMEND_KEEP_MODELS

Cache:
  - CACHE_BACKEND: memory, badger or redis
  - CACHE_BADGER_PATH, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB

Security:
  - JWT_SECRET, SESSION_TIMEOUT, AUTH_REQUIRED, CORS_ORIGINS
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - LOGIN_ATTEMPTS, LOGIN_WINDOW

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal().Err(err).Msg("Failed to load config")
	}
*/
package config
