// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

// Package database ingests the rating and catalog CSV files through DuckDB.
//
// # Overview
//
// DB implements recommend.DataProvider. Each call to LoadRatings or LoadItems
// re-reads its file so a retrain picks up edited data.
//
// Ratings:
//   - If the merged file (rating.csv) is missing, the configured parts
//     (rating_1.csv, rating_2.csv) are concatenated with COPY into a
//     temporary file which is then renamed into place. Later loads reuse it.
//   - Every column is read as VARCHAR and checked with TRY_CAST. The first
//     row that does not convert fails the import with a
//     *recommend.InvalidInputError carrying its 1-based file line.
//
// Catalog:
//   - anime_id is required. name, genre and type are optional and become
//     empty strings when missing, which the engine reports as "unknown".
//   - Rows without an integer ID are skipped and counted in ImportStats.
//
// # Files
//
//   - database.go: connection lifecycle and shared helpers
//   - import.go: CSV merge, validation and row loading
//   - sqlutil.go: literal and identifier quoting for DuckDB table functions
package database
