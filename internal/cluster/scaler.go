// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package cluster

import (
	"fmt"
	"math"
)

// Scaler standardizes each column to zero mean and unit variance. The
// population standard deviation is used; zero-variance columns get a scale of
// 1 so they pass through centered but unscaled.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// FitScaler learns per-column mean and scale from m.
func FitScaler(m [][]float64) (*Scaler, error) {
	if len(m) == 0 {
		return nil, ErrEmptyMatrix
	}
	dim := len(m[0])
	s := &Scaler{Mean: make([]float64, dim), Scale: make([]float64, dim)}

	for _, row := range m {
		if len(row) != dim {
			return nil, &DimensionError{Want: dim, Got: len(row)}
		}
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	n := float64(len(m))
	for j := range s.Mean {
		s.Mean[j] /= n
	}

	for _, row := range m {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Scale[j] += d * d
		}
	}
	for j := range s.Scale {
		std := math.Sqrt(s.Scale[j] / n)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Scale[j] = std
	}
	return s, nil
}

// Dim returns the number of columns the scaler was fitted on.
func (s *Scaler) Dim() int { return len(s.Mean) }

// TransformRow standardizes a single row.
func (s *Scaler) TransformRow(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, &DimensionError{Want: len(s.Mean), Got: len(row)}
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// Transform standardizes every row of m.
func (s *Scaler) Transform(m [][]float64) ([][]float64, error) {
	out := make([][]float64, len(m))
	for i, row := range m {
		r, err := s.TransformRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}
