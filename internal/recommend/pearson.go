// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package recommend

import "math"

// Pearson returns the Pearson correlation coefficient of two equal-length
// vectors. The boolean is false when the coefficient is undefined: empty or
// mismatched input, or zero variance in either vector.
//
// Every position takes part in the computation, including zero cells.
func Pearson(a, b []float64) (float64, bool) {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0, false
	}

	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / float64(n)
	meanB := sumB / float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	if varA == 0 || varB == 0 {
		return 0, false
	}

	r := cov / (math.Sqrt(varA) * math.Sqrt(varB))
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}

	// Rounding can push |r| marginally past 1.
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}
