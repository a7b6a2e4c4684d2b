// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package regress

import (
	"math"
	"math/rand"
)

// TrainTestSplit shuffles [0, n) with seed and returns the train and test
// index sets. The test set holds ceil(n*testFraction) rows, and at least one
// row stays in train when n > 1.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	if n <= 0 {
		return nil, nil
	}
	//nolint:gosec // G404: math/rand is acceptable for dataset shuffling
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest < 0 {
		nTest = 0
	}
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

// R2 is the coefficient of determination. A constant target scores 1 when it
// is predicted exactly and 0 otherwise.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	mean := 0.0
	for _, v := range yTrue {
		mean += v
	}
	mean /= float64(len(yTrue))

	ssRes, ssTot := 0.0, 0.0
	for i, v := range yTrue {
		r := v - yPred[i]
		ssRes += r * r
		d := v - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// Rows returns the rows of x and y selected by idx.
func Rows(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for k, i := range idx {
		xs[k] = x[i]
		ys[k] = y[i]
	}
	return xs, ys
}
