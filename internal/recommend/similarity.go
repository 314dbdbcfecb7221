// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package recommend

import (
	"context"
	"math"
	"sort"
	"sync"
)

// SimilarityVector holds the similarity of one target user to every matrix
// row, keyed by user ID. The target's own entry is always 0.
type SimilarityVector struct {
	target  int
	userIDs []int
	values  []float64
}

// Target returns the user the vector was computed for.
func (v SimilarityVector) Target() int {
	return v.target
}

// Len returns the number of users in the vector, including the target.
func (v SimilarityVector) Len() int {
	return len(v.userIDs)
}

// Of returns the similarity between the target and userID.
func (v SimilarityVector) Of(userID int) (float64, bool) {
	i := sort.SearchInts(v.userIDs, userID)
	if i == len(v.userIDs) || v.userIDs[i] != userID {
		return 0, false
	}
	return v.values[i], true
}

// AbsSum returns the sum of absolute similarities in ascending user order.
func (v SimilarityVector) AbsSum() float64 {
	var sum float64
	for _, s := range v.values {
		sum += math.Abs(s)
	}
	return sum
}

// computeSimilarities correlates the target row against every row of m.
// Rows are split into contiguous chunks, one per worker. Each worker writes
// only its own slots, so the result does not depend on scheduling.
func computeSimilarities(ctx context.Context, m *Matrix, targetIdx, workers int) (SimilarityVector, error) {
	n := len(m.users)
	vec := SimilarityVector{
		target:  m.users[targetIdx],
		userIDs: m.users,
		values:  make([]float64, n),
	}

	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	target := m.row(targetIdx)
	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return
				}
				if i == targetIdx {
					continue
				}
				if r, ok := Pearson(target, m.row(i)); ok {
					vec.values[i] = r
				}
			}
		}(start, end)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return SimilarityVector{}, err
	}
	return vec, nil
}
