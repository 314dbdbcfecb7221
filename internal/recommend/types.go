// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package recommend

import (
	"fmt"
	"time"
)

const (
	// UnknownValue replaces title, genre and type for items without metadata.
	UnknownValue = "unknown"

	// FallbackNote is attached to every popularity-ranked recommendation.
	FallbackNote = "popular recommendation (fallback)"

	// similarityEpsilon is the smallest total absolute similarity that still
	// counts as a usable signal.
	similarityEpsilon = 1e-8

	// scorePrecision is the number of decimal digits kept in returned scores.
	scorePrecision = 4
)

// Rating is a single explicit user-item rating.
type Rating struct {
	// UserID is the rater.
	UserID int `json:"user_id"`

	// ItemID is the rated item.
	ItemID int `json:"item_id"`

	// Value is the rating as ingested. No clipping is applied.
	Value float64 `json:"rating"`
}

// Item is the display metadata for a rated item.
type Item struct {
	ID    int    `json:"item_id"`
	Title string `json:"title"`
	Genre string `json:"genre"`
	Type  string `json:"type"`
}

// Recommendation is one ranked result returned to a caller.
type Recommendation struct {
	ItemID int    `json:"item_id"`
	Title  string `json:"title"`
	Genre  string `json:"genre"`
	Type   string `json:"type"`

	// Score is the weighted neighbour score, or the mean rating for
	// fallback results. Rounded to four decimals.
	Score float64 `json:"recommendation_score"`

	// IsFallback is true when the result came from popularity ranking.
	IsFallback bool `json:"is_fallback"`

	// Note carries FallbackNote on fallback results.
	Note string `json:"note,omitempty"`
}

// TrainingSummary describes the outcome of a matrix build.
type TrainingSummary struct {
	// RetainedUsers is the number of users that met the rating threshold.
	RetainedUsers int `json:"retained_users"`

	// RetainedItems is the number of items that met the rating threshold.
	RetainedItems int `json:"retained_items"`

	// MatrixUsers and MatrixItems are the dimensions of the pivoted matrix,
	// after the intersection filter.
	MatrixUsers int `json:"matrix_users"`
	MatrixItems int `json:"matrix_items"`

	// InputRatings and KeptRatings count records before and after filtering.
	InputRatings int `json:"input_ratings"`
	KeptRatings  int `json:"kept_ratings"`

	// MinRatings is the threshold that was applied.
	MinRatings int `json:"min_ratings"`
}

// String renders the human-readable training message.
//
//nolint:gocritic // hugeParam: summary is a small value type
func (s TrainingSummary) String() string {
	return fmt.Sprintf("model trained with %d users and %d items", s.RetainedUsers, s.RetainedItems)
}

// ModelInfo reports the state of the model currently served by an Engine.
type ModelInfo struct {
	Trained   bool            `json:"trained"`
	Version   int             `json:"version"`
	ModelID   string          `json:"model_id,omitempty"`
	TrainedAt time.Time       `json:"trained_at,omitempty"`
	Summary   TrainingSummary `json:"summary"`
}

// Stats holds engine-level counters.
type Stats struct {
	Requests      int64  `json:"requests"`
	Fallbacks     int64  `json:"fallbacks"`
	CacheHits     int64  `json:"cache_hits"`
	CacheMisses   int64  `json:"cache_misses"`
	Errors        int64  `json:"errors"`
	TrainingRuns  int64  `json:"training_runs"`
	LastTrainMS   int64  `json:"last_train_ms"`
	ModelVersion  int    `json:"model_version"`
	MatrixUsers   int    `json:"matrix_users"`
	MatrixItems   int    `json:"matrix_items"`
	CatalogItems  int    `json:"catalog_items"`
	RawRatings    int    `json:"raw_ratings"`
	TrainingError string `json:"training_error,omitempty"`
}
