// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package features

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonFiniteMatrix is returned when a feature matrix still holds NaN or
// infinite values after sanitization.
var ErrNonFiniteMatrix = errors.New("feature matrix contains non-finite values")

// Sanitize replaces NaN and infinite values in every value column with 0 and
// returns how many were replaced.
func Sanitize(t *Table) int {
	replaced := 0
	for i := range t.Rows {
		vals := t.Rows[i].Values
		for j, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				vals[j] = 0
				replaced++
			}
		}
	}
	return replaced
}

// Matrix extracts the named columns of t row by row.
func Matrix(t *Table, columns []string) ([][]float64, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.Col(c)
		if idx[i] < 0 {
			return nil, fmt.Errorf("feature column %q not in table", c)
		}
	}
	out := make([][]float64, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]float64, len(idx))
		for j, c := range idx {
			row[j] = r.Values[c]
		}
		out[i] = row
	}
	return out, nil
}

// AssertFinite fails when any cell of m is NaN or infinite.
func AssertFinite(m [][]float64) error {
	for i, row := range m {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: row %d column %d", ErrNonFiniteMatrix, i, j)
			}
		}
	}
	return nil
}
