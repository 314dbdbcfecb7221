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
	"time"

	"github.com/tomtom215/animerec/internal/logging"
	"github.com/tomtom215/animerec/internal/metrics"
	"github.com/tomtom215/animerec/internal/recommend"
)

// csvHeaderLines is the number of lines before the first data row.
const csvHeaderLines = 1

// EnsureMergedRatings returns the merged ratings file, creating it from the
// configured rating parts when it does not exist yet. The boolean reports
// whether the file was created by this call.
func (db *DB) EnsureMergedRatings(ctx context.Context) (string, bool, error) {
	db.importMu.Lock()
	defer db.importMu.Unlock()
	return db.ensureMergedRatings(ctx)
}

func (db *DB) ensureMergedRatings(ctx context.Context) (string, bool, error) {
	merged := db.cfg.Path(db.cfg.MergedRatingsFile)
	if fileExists(merged) {
		return merged, false, nil
	}

	if len(db.cfg.RatingFiles) == 0 {
		return "", false, fmt.Errorf("%w: %s (no rating parts configured)", ErrDataNotFound, merged)
	}
	parts := make([]string, 0, len(db.cfg.RatingFiles))
	for _, name := range db.cfg.RatingFiles {
		part := db.cfg.Path(name)
		if !fileExists(part) {
			return "", false, fmt.Errorf("%w: %s", ErrDataNotFound, part)
		}
		parts = append(parts, part)
	}

	if dir := filepath.Dir(merged); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", false, fmt.Errorf("create data directory: %w", err)
		}
	}

	// Write to a temporary name so a failed COPY never leaves a partial
	// merged file that later runs would trust.
	tmp := merged + ".tmp"
	query := fmt.Sprintf(
		"COPY (SELECT * FROM %s) TO %s (FORMAT csv, HEADER true)",
		readCSV(literalList(parts), "union_by_name = true"),
		quoteLiteral(tmp),
	)
	if err := db.exec(ctx, "merge", "ratings", query); err != nil {
		_ = os.Remove(tmp)
		return "", false, err
	}
	if err := os.Rename(tmp, merged); err != nil {
		_ = os.Remove(tmp)
		return "", false, fmt.Errorf("rename merged ratings: %w", err)
	}

	logging.Info().
		Strs("parts", parts).
		Str("merged", merged).
		Msg("Merged rating files")

	return merged, true, nil
}

// LoadRatings imports the merged ratings file and returns its rows in file
// order. A row whose user, item or rating does not parse fails the whole
// import with a *recommend.InvalidInputError naming the source line.
func (db *DB) LoadRatings(ctx context.Context) ([]recommend.Rating, error) {
	db.importMu.Lock()
	defer db.importMu.Unlock()

	path, created, err := db.ensureMergedRatings(ctx)
	if err != nil {
		return nil, err
	}

	userCol, itemCol, ratingCol := db.cfg.UserColumn, db.cfg.ItemColumn, db.cfg.RatingColumn
	if err := db.requireColumns(ctx, path, userCol, itemCol, ratingCol); err != nil {
		return nil, err
	}

	createRaw := fmt.Sprintf(
		"CREATE OR REPLACE TABLE ratings_raw AS SELECT %s AS user_raw, %s AS item_raw, %s AS rating_raw FROM %s",
		quoteIdent(userCol), quoteIdent(itemCol), quoteIdent(ratingCol), readCSV(quoteLiteral(path)),
	)
	if err := db.exec(ctx, "import", "ratings_raw", createRaw); err != nil {
		return nil, err
	}
	defer func() {
		_ = db.exec(context.WithoutCancel(ctx), "drop", "ratings_raw", "DROP TABLE IF EXISTS ratings_raw")
	}()

	if err := db.firstInvalidRating(ctx, userCol, itemCol, ratingCol); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	createTyped := `CREATE OR REPLACE TABLE ratings AS
		SELECT CAST(user_raw AS BIGINT) AS user_id,
		       CAST(item_raw AS BIGINT) AS item_id,
		       CAST(rating_raw AS DOUBLE) AS rating
		FROM ratings_raw
		ORDER BY rowid`
	if err := db.exec(ctx, "import", "ratings", createTyped); err != nil {
		return nil, err
	}

	ratings, err := db.queryRatings(ctx)
	if err != nil {
		return nil, err
	}

	users, _ := db.count(ctx, "SELECT COUNT(DISTINCT user_id) FROM ratings")
	items, _ := db.count(ctx, "SELECT COUNT(DISTINCT item_id) FROM ratings")

	db.updateStats(func(s *ImportStats) {
		s.RatingsPath = path
		s.MergedCreated = created
		s.Ratings = len(ratings)
		s.Users = users
		s.RatedItems = items
		s.LoadedAt = time.Now()
	})
	db.ratingsLoaded.Store(true)
	metrics.SetRowsLoaded("ratings", len(ratings))

	logging.Info().
		Str("path", path).
		Int("ratings", len(ratings)).
		Int("users", users).
		Int("items", items).
		Msg("Ratings loaded")

	return ratings, nil
}

// firstInvalidRating returns an InvalidInputError for the earliest row of
// ratings_raw that fails conversion, or nil.
func (db *DB) firstInvalidRating(ctx context.Context, userCol, itemCol, ratingCol string) error {
	const query = `
		SELECT rowid, user_raw, item_raw, rating_raw, user_ok, item_ok, rating_ok
		FROM (
			SELECT rowid, user_raw, item_raw, rating_raw,
			       TRY_CAST(user_raw AS BIGINT) IS NOT NULL AS user_ok,
			       TRY_CAST(item_raw AS BIGINT) IS NOT NULL AS item_ok,
			       COALESCE(isfinite(TRY_CAST(rating_raw AS DOUBLE)), false) AS rating_ok
			FROM ratings_raw
		)
		WHERE NOT (user_ok AND item_ok AND rating_ok)
		ORDER BY rowid
		LIMIT 1`

	var (
		rowID                       int64
		userRaw, itemRaw, ratingRaw sql.NullString
		userOK, itemOK, ratingOK    bool
	)
	err := db.conn.QueryRowContext(ctx, query).Scan(&rowID, &userRaw, &itemRaw, &ratingRaw, &userOK, &itemOK, &ratingOK)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("validate ratings: %w", err)
	}

	invalid := &recommend.InvalidInputError{Line: int(rowID) + csvHeaderLines + 1}
	switch {
	case !userOK:
		invalid.Field, invalid.Value, invalid.Reason = userCol, userRaw.String, "not an integer"
	case !itemOK:
		invalid.Field, invalid.Value, invalid.Reason = itemCol, itemRaw.String, "not an integer"
	default:
		invalid.Field, invalid.Value, invalid.Reason = ratingCol, ratingRaw.String, "not a finite number"
	}
	return invalid
}

func (db *DB) queryRatings(ctx context.Context) ([]recommend.Rating, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, "SELECT user_id, item_id, rating FROM ratings ORDER BY rowid")
	if err != nil {
		metrics.RecordDBQuery("select", "ratings", time.Since(start), err)
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []recommend.Rating
	for rows.Next() {
		var (
			userID, itemID int64
			value          float64
		)
		if err := rows.Scan(&userID, &itemID, &value); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, recommend.Rating{UserID: int(userID), ItemID: int(itemID), Value: value})
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

// LoadItems imports the catalog file. Missing title, genre or type columns
// become empty strings. Rows whose ID is not an integer are skipped.
func (db *DB) LoadItems(ctx context.Context) ([]recommend.Item, error) {
	db.importMu.Lock()
	defer db.importMu.Unlock()

	path := db.cfg.Path(db.cfg.ItemsFile)
	if !fileExists(path) {
		return nil, fmt.Errorf("%w: %s", ErrDataNotFound, path)
	}

	idCol := db.cfg.ItemColumn
	if err := db.requireColumns(ctx, path, idCol); err != nil {
		return nil, err
	}
	columns, err := db.csvColumns(ctx, path)
	if err != nil {
		return nil, err
	}

	optional := func(name string) string {
		if columns[name] {
			return "COALESCE(" + quoteIdent(name) + ", '')"
		}
		return "''"
	}

	create := fmt.Sprintf(`CREATE OR REPLACE TABLE items AS
		SELECT item_id, title, genre, type
		FROM (
			SELECT TRY_CAST(%s AS BIGINT) AS item_id,
			       %s AS title, %s AS genre, %s AS type
			FROM %s
		)
		WHERE item_id IS NOT NULL`,
		quoteIdent(idCol),
		optional(db.cfg.TitleColumn), optional(db.cfg.GenreColumn), optional(db.cfg.TypeColumn),
		readCSV(quoteLiteral(path)),
	)
	if err := db.exec(ctx, "import", "items", create); err != nil {
		return nil, err
	}

	total, err := db.count(ctx, "SELECT COUNT(*) FROM "+readCSV(quoteLiteral(path)))
	if err != nil {
		return nil, fmt.Errorf("count catalog rows: %w", err)
	}

	items, err := db.queryItems(ctx)
	if err != nil {
		return nil, err
	}
	skipped := total - len(items)

	db.updateStats(func(s *ImportStats) {
		s.ItemsPath = path
		s.Items = len(items)
		s.SkippedItems = skipped
		s.LoadedAt = time.Now()
	})
	db.itemsLoaded.Store(true)
	metrics.SetRowsLoaded("items", len(items))

	event := logging.Info()
	if skipped > 0 {
		event = logging.Warn()
	}
	event.
		Str("path", path).
		Int("items", len(items)).
		Int("skipped", skipped).
		Msg("Catalog loaded")

	return items, nil
}

func (db *DB) queryItems(ctx context.Context) ([]recommend.Item, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, "SELECT item_id, title, genre, type FROM items ORDER BY rowid")
	if err != nil {
		metrics.RecordDBQuery("select", "items", time.Since(start), err)
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []recommend.Item
	for rows.Next() {
		var (
			id                 int64
			title, genre, kind string
		)
		if err := rows.Scan(&id, &title, &genre, &kind); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, recommend.Item{ID: int(id), Title: title, Genre: genre, Type: kind})
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "items", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// csvColumns returns the header columns of a CSV file.
func (db *DB) csvColumns(ctx context.Context, path string) (map[string]bool, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT * FROM "+readCSV(quoteLiteral(path))+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	columns := make(map[string]bool, len(names))
	for _, name := range names {
		columns[name] = true
	}
	return columns, nil
}

// requireColumns fails with an InvalidInputError on line 1 when any of the
// named columns is missing from the header.
func (db *DB) requireColumns(ctx context.Context, path string, names ...string) error {
	columns, err := db.csvColumns(ctx, path)
	if err != nil {
		return err
	}
	for _, name := range names {
		if !columns[name] {
			return fmt.Errorf("%s: %w", path, &recommend.InvalidInputError{
				Line:   1,
				Field:  name,
				Reason: "missing column",
			})
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
