// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver

	"github.com/tomtom215/animerec/internal/config"
	"github.com/tomtom215/animerec/internal/logging"
	"github.com/tomtom215/animerec/internal/metrics"
)

// ErrDataNotFound is returned when a required CSV file is missing.
var ErrDataNotFound = errors.New("data file not found")

// defaultQueryTimeout bounds a single import statement.
const defaultQueryTimeout = 5 * time.Minute

// ImportStats describes the most recent data import.
type ImportStats struct {
	RatingsPath   string    `json:"ratings_path"`
	ItemsPath     string    `json:"items_path"`
	MergedCreated bool      `json:"merged_created"`
	Ratings       int       `json:"ratings"`
	Users         int       `json:"users"`
	RatedItems    int       `json:"rated_items"`
	Items         int       `json:"items"`
	SkippedItems  int       `json:"skipped_items"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// DB ingests rating and catalog CSV files through DuckDB and serves them to
// the recommendation engine as a recommend.DataProvider.
type DB struct {
	conn *sql.DB
	cfg  config.DataConfig

	// importMu serializes imports; each import replaces the tables.
	importMu sync.Mutex

	ratingsLoaded atomic.Bool
	itemsLoaded   atomic.Bool

	statsMu sync.RWMutex
	stats   ImportStats
}

// New opens the DuckDB database described by cfg.
func New(cfg config.DataConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	path := cfg.DatabasePath
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	// Extensions are not needed for CSV ingestion. Disabling auto-install
	// prevents hangs in restricted network environments.
	connStr := fmt.Sprintf("%s?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	db := &DB{conn: conn, cfg: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logging.Info().
		Str("path", path).
		Int("threads", threads).
		Str("max_memory", maxMemory).
		Msg("DuckDB opened")

	return db, nil
}

// Ping checks that the database answers queries.
func (db *DB) Ping(ctx context.Context) error {
	var one int
	return db.conn.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// DataLoaded reports whether both ratings and items have been imported.
func (db *DB) DataLoaded() bool {
	return db.ratingsLoaded.Load() && db.itemsLoaded.Load()
}

// Stats returns a copy of the most recent import statistics.
func (db *DB) Stats() ImportStats {
	db.statsMu.RLock()
	defer db.statsMu.RUnlock()
	return db.stats
}

func (db *DB) updateStats(fn func(s *ImportStats)) {
	db.statsMu.Lock()
	defer db.statsMu.Unlock()
	fn(&db.stats)
}

// exec runs a statement with a timeout and records its metrics.
func (db *DB) exec(ctx context.Context, operation, table, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query, args...)
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s %s: %w", operation, table, err)
	}
	return nil
}

// count returns SELECT COUNT-style scalar results.
func (db *DB) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
