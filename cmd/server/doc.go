// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

/*
Package main is the entry point for the animerec server.

animerec serves user-based collaborative filtering recommendations for an
anime catalog. Ratings and catalog metadata are ingested from CSV files
through DuckDB, a Pearson-correlation model is trained in memory, and
results are served over HTTP.

# Application Architecture

	animerec (root supervisor)
	├── training-layer
	│   └── training-service   startup and scheduled retraining
	├── maintenance-layer
	│   └── maintenance-service  cache sweeps, login limiter cleanup
	└── api-layer
	    └── http-server

Initialization order:

 1. Configuration: koanf v2 (defaults, optional YAML, environment)
 2. Logging: zerolog
 3. Data directories
 4. DuckDB
 5. Result cache backend (memory, badger or redis)
 6. Recommendation engine, restoring the latest persisted model
 7. Authentication: users file, JWT manager, login limiter
 8. chi router
 9. Supervisor tree

# Configuration

Common environment variables:

	HTTP_PORT / HTTP_HOST        listen address (default 0.0.0.0:5000)
	DATA_DIR                     CSV directory (default data)
	RECOMMEND_MIN_RATINGS        matrix threshold (default 100)
	RECOMMEND_TRAIN_ON_STARTUP   train when no persisted model exists
	RECOMMEND_RETRAIN_INTERVAL   periodic retraining, 0 disables
	CACHE_BACKEND                memory, badger or redis
	REDIS_ADDR                   redis address for the redis backend
	JWT_SECRET                   token signing key
	AUTH_REQUIRED                require a bearer token for /train
	LOG_LEVEL / LOG_FORMAT       logging

# Graceful Shutdown

SIGINT or SIGTERM cancels the root context. The supervisor stops every
service, the HTTP server drains within its shutdown timeout, and the
cache and database are closed.
*/
package main
