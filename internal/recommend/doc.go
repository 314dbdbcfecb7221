// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

// Package recommend implements user-based collaborative filtering over an
// explicit rating matrix.
//
// # Pipeline
//
//   - BuildMatrix keeps users and items with at least MinRatings records,
//     applies the intersection filter and pivots the survivors into a dense
//     table where 0.0 means "unrated".
//   - TrainedModel.Recommend correlates the target row with every other row
//     (Pearson over all columns), aggregates a similarity-weighted score per
//     item and ranks the items the user has not rated.
//   - When the total absolute similarity is below 1e-8 the request is served
//     by TrainedModel.RecommendPopular, which ranks items by their mean
//     rating over the unfiltered ratings.
//
// Ties are broken by ascending item ID. Scores are rounded to four decimals.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), logger)
//	engine.SetDataProvider(db)
//
//	summary, err := engine.Train(ctx)
//	resp, err := engine.Recommend(ctx, userID, 10)
//	if errors.Is(err, recommend.ErrUserNotFound) {
//	    // unknown user
//	}
//
// # Thread Safety
//
// A TrainedModel is immutable. The Engine publishes models through an atomic
// pointer, so concurrent Recommend calls never observe a partially built
// model and never block on training.
package recommend
