// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package recommend

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"
)

// ItemMean is the mean rating of one item over the unfiltered ratings.
type ItemMean struct {
	ItemID int
	Mean   float64
	Count  int
}

// TrainedModel is the immutable result of one training run. It owns the
// rating matrix, the item catalog and the popularity table built from the
// raw ratings. All methods are safe for concurrent use.
type TrainedModel struct {
	matrix  *Matrix
	items   map[int]Item
	summary TrainingSummary

	// popularity is sorted by descending mean, then ascending item ID.
	popularity []ItemMean
	rawRatings int

	workers   int
	id        string
	version   int
	trainedAt time.Time
}

// ModelOptions controls how a TrainedModel is built.
type ModelOptions struct {
	// MinRatings is the activity threshold for users and items.
	MinRatings int

	// Workers bounds the goroutines used for similarity computation.
	// Zero means runtime.NumCPU().
	Workers int
}

// NewTrainedModel builds the matrix and popularity table from ratings.
//
//nolint:gocritic // hugeParam: options are copied once per training run
func NewTrainedModel(ratings []Rating, items []Item, opts ModelOptions) (*TrainedModel, error) {
	matrix, summary, err := BuildMatrix(ratings, opts.MinRatings)
	if err != nil {
		return nil, fmt.Errorf("build matrix: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &TrainedModel{
		matrix:     matrix,
		items:      indexItems(items),
		summary:    summary,
		popularity: computePopularity(ratings),
		rawRatings: len(ratings),
		workers:    workers,
		trainedAt:  time.Now(),
	}, nil
}

// indexItems keys the catalog by item ID. The first entry for an ID wins.
func indexItems(items []Item) map[int]Item {
	out := make(map[int]Item, len(items))
	for _, it := range items {
		if _, exists := out[it.ID]; !exists {
			out[it.ID] = it
		}
	}
	return out
}

// computePopularity averages every item's ratings over the full input.
func computePopularity(ratings []Rating) []ItemMean {
	type acc struct {
		sum   float64
		count int
	}
	byItem := make(map[int]*acc)
	for _, r := range ratings {
		a := byItem[r.ItemID]
		if a == nil {
			a = &acc{}
			byItem[r.ItemID] = a
		}
		a.sum += r.Value
		a.count++
	}

	out := make([]ItemMean, 0, len(byItem))
	for id, a := range byItem {
		out = append(out, ItemMean{ItemID: id, Mean: a.sum / float64(a.count), Count: a.count})
	}
	sortItemMeans(out)
	return out
}

func sortItemMeans(means []ItemMean) {
	sort.Slice(means, func(i, j int) bool {
		if means[i].Mean != means[j].Mean {
			return means[i].Mean > means[j].Mean
		}
		return means[i].ItemID < means[j].ItemID
	})
}

// Recommend returns up to n items for userID, ranked by the similarity
// weighted ratings of every other user.
func (tm *TrainedModel) Recommend(userID, n int) ([]Recommendation, error) {
	recs, _, err := tm.recommend(context.Background(), userID, n)
	return recs, err
}

// RecommendContext is Recommend with cancellation of the similarity pass.
func (tm *TrainedModel) RecommendContext(ctx context.Context, userID, n int) ([]Recommendation, error) {
	recs, _, err := tm.recommend(ctx, userID, n)
	return recs, err
}

// recommend also reports whether the popularity fallback produced the result.
func (tm *TrainedModel) recommend(ctx context.Context, userID, n int) ([]Recommendation, bool, error) {
	idx, ok := tm.matrix.userRow[userID]
	if !ok {
		return nil, false, &UserNotFoundError{UserID: userID}
	}
	if n <= 0 {
		return []Recommendation{}, false, nil
	}

	watched := tm.matrix.watched(idx)

	sims, err := computeSimilarities(ctx, tm.matrix, idx, tm.workers)
	if err != nil {
		return nil, false, err
	}

	denom := sims.AbsSum()
	if denom < similarityEpsilon {
		return tm.RecommendPopular(n, watched), true, nil
	}

	m := tm.matrix
	weighted := make([]float64, len(m.items))
	for u, s := range sims.values {
		if s == 0 {
			continue
		}
		for col, v := range m.row(u) {
			weighted[col] += s * v
		}
	}

	type candidate struct {
		itemID int
		score  float64
	}
	candidates := make([]candidate, 0, len(m.items)-len(watched))
	for col, itemID := range m.items {
		if _, seen := watched[itemID]; seen {
			continue
		}
		candidates = append(candidates, candidate{itemID: itemID, score: weighted[col] / denom})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].itemID < candidates[j].itemID
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}

	recs := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		recs = append(recs, tm.describe(c.itemID, c.score))
	}
	return recs, false, nil
}

// RecommendPopular returns up to n items ranked by mean rating over the raw
// ratings, skipping anything in exclude. Every result is tagged as fallback.
func (tm *TrainedModel) RecommendPopular(n int, exclude map[int]struct{}) []Recommendation {
	if n <= 0 {
		return []Recommendation{}
	}

	recs := make([]Recommendation, 0, min(n, len(tm.popularity)))
	for _, pm := range tm.popularity {
		if len(recs) == n {
			break
		}
		if _, skip := exclude[pm.ItemID]; skip {
			continue
		}

		rec := tm.describe(pm.ItemID, pm.Mean)
		rec.IsFallback = true
		rec.Note = FallbackNote
		recs = append(recs, rec)
	}
	return recs
}

// describe joins catalog metadata onto a scored item.
func (tm *TrainedModel) describe(itemID int, score float64) Recommendation {
	rec := Recommendation{
		ItemID: itemID,
		Title:  UnknownValue,
		Genre:  UnknownValue,
		Type:   UnknownValue,
		Score:  roundScore(score),
	}
	if it, ok := tm.items[itemID]; ok {
		rec.Title = orUnknown(it.Title)
		rec.Genre = orUnknown(it.Genre)
		rec.Type = orUnknown(it.Type)
	}
	return rec
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownValue
	}
	return s
}

func roundScore(v float64) float64 {
	p := math.Pow(10, scorePrecision)
	return math.Round(v*p) / p
}

// Similarities exposes the similarity vector for userID. It is intended for
// diagnostics and tests.
func (tm *TrainedModel) Similarities(ctx context.Context, userID int) (SimilarityVector, error) {
	idx, ok := tm.matrix.userRow[userID]
	if !ok {
		return SimilarityVector{}, &UserNotFoundError{UserID: userID}
	}
	return computeSimilarities(ctx, tm.matrix, idx, tm.workers)
}

// Matrix returns the model's rating matrix.
func (tm *TrainedModel) Matrix() *Matrix { return tm.matrix }

// Summary returns the training summary.
//
//nolint:gocritic // hugeParam: returned by value so callers cannot mutate the model
func (tm *TrainedModel) Summary() TrainingSummary { return tm.summary }

// ID returns the unique identifier assigned when the model was published.
func (tm *TrainedModel) ID() string { return tm.id }

// Version returns the engine-assigned model version.
func (tm *TrainedModel) Version() int { return tm.version }

// TrainedAt returns when the model was built.
func (tm *TrainedModel) TrainedAt() time.Time { return tm.trainedAt }

// RawRatings returns the number of ratings the model was trained on.
func (tm *TrainedModel) RawRatings() int { return tm.rawRatings }

// CatalogSize returns the number of items with metadata.
func (tm *TrainedModel) CatalogSize() int { return len(tm.items) }

// ModelState is the serializable form of a TrainedModel.
type ModelState struct {
	ID         string
	Version    int
	TrainedAt  time.Time
	Summary    TrainingSummary
	Matrix     MatrixState
	Items      []Item
	Popularity []ItemMean
	RawRatings int
}

// State exports the model for persistence.
func (tm *TrainedModel) State() ModelState {
	items := make([]Item, 0, len(tm.items))
	for _, it := range tm.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return ModelState{
		ID:         tm.id,
		Version:    tm.version,
		TrainedAt:  tm.trainedAt,
		Summary:    tm.summary,
		Matrix:     tm.matrix.State(),
		Items:      items,
		Popularity: append([]ItemMean(nil), tm.popularity...),
		RawRatings: tm.rawRatings,
	}
}

// RestoreModel rebuilds a TrainedModel from persisted state.
//
//nolint:gocritic // hugeParam: state is consumed once at load time
func RestoreModel(state ModelState, workers int) (*TrainedModel, error) {
	matrix, err := matrixFromState(state.Matrix)
	if err != nil {
		return nil, fmt.Errorf("restore matrix: %w", err)
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	popularity := append([]ItemMean(nil), state.Popularity...)
	sortItemMeans(popularity)

	return &TrainedModel{
		matrix:     matrix,
		items:      indexItems(state.Items),
		summary:    state.Summary,
		popularity: popularity,
		rawRatings: state.RawRatings,
		workers:    workers,
		id:         state.ID,
		version:    state.Version,
		trainedAt:  state.TrainedAt,
	}, nil
}
