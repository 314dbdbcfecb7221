// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package recommend

import (
	"fmt"
	"math"
	"sort"
)

// Matrix is a dense user-item rating table.
//
// Rows are user IDs and columns are item IDs, both sorted ascending. A cell
// holds the rating or 0.0 when the user never rated the item, so 0.0 doubles
// as "unrated" in every downstream computation. A Matrix is immutable once
// built and is safe for concurrent reads.
type Matrix struct {
	users   []int
	items   []int
	userRow map[int]int
	itemCol map[int]int

	// values is row-major with len(users)*len(items) cells.
	values []float64
}

// BuildMatrix filters ratings down to active users and items and pivots the
// survivors into a Matrix.
//
// Users and items are retained when they appear in at least minRatings
// records. Only records whose user and item were both retained are pivoted.
// Duplicate (user, item) records are averaged.
func BuildMatrix(ratings []Rating, minRatings int) (*Matrix, TrainingSummary, error) {
	summary := TrainingSummary{
		InputRatings: len(ratings),
		MinRatings:   minRatings,
	}

	if minRatings < 1 {
		return nil, summary, fmt.Errorf("%w: min ratings must be at least 1, got %d", ErrInvalidInput, minRatings)
	}

	userCounts := make(map[int]int)
	itemCounts := make(map[int]int)
	for i, r := range ratings {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return nil, summary, &InvalidInputError{
				Line:   i + 1,
				Field:  "rating",
				Value:  fmt.Sprint(r.Value),
				Reason: "rating must be a finite number",
			}
		}
		userCounts[r.UserID]++
		itemCounts[r.ItemID]++
	}

	retainedUsers := retainIDs(userCounts, minRatings)
	retainedItems := retainIDs(itemCounts, minRatings)
	summary.RetainedUsers = len(retainedUsers)
	summary.RetainedItems = len(retainedItems)

	kept := make([]Rating, 0, len(ratings))
	for _, r := range ratings {
		if _, ok := retainedUsers[r.UserID]; !ok {
			continue
		}
		if _, ok := retainedItems[r.ItemID]; !ok {
			continue
		}
		kept = append(kept, r)
	}
	summary.KeptRatings = len(kept)

	m := pivot(kept)
	summary.MatrixUsers = len(m.users)
	summary.MatrixItems = len(m.items)

	return m, summary, nil
}

// retainIDs returns the IDs whose count reaches the threshold.
func retainIDs(counts map[int]int, threshold int) map[int]struct{} {
	retained := make(map[int]struct{}, len(counts))
	for id, c := range counts {
		if c >= threshold {
			retained[id] = struct{}{}
		}
	}
	return retained
}

// pivot builds the dense table from already-filtered records.
func pivot(kept []Rating) *Matrix {
	// Sorting by (user, item) groups duplicates into runs and fixes the
	// summation order used when averaging them.
	sorted := make([]Rating, len(kept))
	copy(sorted, kept)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UserID != sorted[j].UserID {
			return sorted[i].UserID < sorted[j].UserID
		}
		return sorted[i].ItemID < sorted[j].ItemID
	})

	m := &Matrix{
		userRow: make(map[int]int),
		itemCol: make(map[int]int),
	}

	itemSet := make(map[int]struct{})
	for _, r := range sorted {
		if _, ok := m.userRow[r.UserID]; !ok {
			m.userRow[r.UserID] = len(m.users)
			m.users = append(m.users, r.UserID)
		}
		itemSet[r.ItemID] = struct{}{}
	}

	m.items = make([]int, 0, len(itemSet))
	for id := range itemSet {
		m.items = append(m.items, id)
	}
	sort.Ints(m.items)
	for col, id := range m.items {
		m.itemCol[id] = col
	}

	m.values = make([]float64, len(m.users)*len(m.items))
	width := len(m.items)

	for start := 0; start < len(sorted); {
		end := start + 1
		for end < len(sorted) && sorted[end].UserID == sorted[start].UserID && sorted[end].ItemID == sorted[start].ItemID {
			end++
		}

		var sum float64
		for _, r := range sorted[start:end] {
			sum += r.Value
		}

		r := sorted[start]
		m.values[m.userRow[r.UserID]*width+m.itemCol[r.ItemID]] = sum / float64(end-start)
		start = end
	}

	return m
}

// NumUsers returns the number of rows.
func (m *Matrix) NumUsers() int {
	if m == nil {
		return 0
	}
	return len(m.users)
}

// NumItems returns the number of columns.
func (m *Matrix) NumItems() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// Users returns a copy of the row user IDs in ascending order.
func (m *Matrix) Users() []int {
	return append([]int(nil), m.users...)
}

// Items returns a copy of the column item IDs in ascending order.
func (m *Matrix) Items() []int {
	return append([]int(nil), m.items...)
}

// HasUser reports whether userID is a row of the matrix.
func (m *Matrix) HasUser(userID int) bool {
	if m == nil {
		return false
	}
	_, ok := m.userRow[userID]
	return ok
}

// Row returns a copy of the user's rating vector in column order.
func (m *Matrix) Row(userID int) ([]float64, bool) {
	idx, ok := m.userRow[userID]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), m.row(idx)...), true
}

// At returns the cell for (userID, itemID), or 0 when either is absent.
func (m *Matrix) At(userID, itemID int) float64 {
	row, ok := m.userRow[userID]
	if !ok {
		return 0
	}
	col, ok := m.itemCol[itemID]
	if !ok {
		return 0
	}
	return m.values[row*len(m.items)+col]
}

// row returns the backing slice for a row index. Callers must not modify it.
func (m *Matrix) row(idx int) []float64 {
	width := len(m.items)
	return m.values[idx*width : (idx+1)*width : (idx+1)*width]
}

// watched returns the items the user has a non-zero rating for.
func (m *Matrix) watched(idx int) map[int]struct{} {
	out := make(map[int]struct{})
	for col, v := range m.row(idx) {
		if v != 0 {
			out[m.items[col]] = struct{}{}
		}
	}
	return out
}

// MatrixState is the serializable form of a Matrix.
type MatrixState struct {
	Users  []int
	Items  []int
	Values []float64
}

// State exports the matrix for persistence.
func (m *Matrix) State() MatrixState {
	return MatrixState{
		Users:  m.Users(),
		Items:  m.Items(),
		Values: append([]float64(nil), m.values...),
	}
}

// matrixFromState rebuilds a Matrix from persisted state.
func matrixFromState(s MatrixState) (*Matrix, error) {
	if len(s.Values) != len(s.Users)*len(s.Items) {
		return nil, fmt.Errorf("%w: matrix has %d cells, expected %d", ErrInvalidInput, len(s.Values), len(s.Users)*len(s.Items))
	}

	m := &Matrix{
		users:   append([]int(nil), s.Users...),
		items:   append([]int(nil), s.Items...),
		userRow: make(map[int]int, len(s.Users)),
		itemCol: make(map[int]int, len(s.Items)),
		values:  append([]float64(nil), s.Values...),
	}
	for i, id := range m.users {
		m.userRow[id] = i
	}
	for i, id := range m.items {
		m.itemCol[id] = i
	}
	if len(m.userRow) != len(m.users) || len(m.itemCol) != len(m.items) {
		return nil, fmt.Errorf("%w: matrix state has duplicate ids", ErrInvalidInput)
	}
	return m, nil
}
