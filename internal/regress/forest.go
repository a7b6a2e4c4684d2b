// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package regress

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// Feature vector layout shared by training and serving.
const (
	FeatQuantity = iota
	FeatUnitPrice
	FeatCategoryCode
	FeatMonth
	FeatWeekday
	FeatHour
	NumFeatures
)

// FeatureNames labels the feature vector positions.
var FeatureNames = [NumFeatures]string{
	"Cantidad", "PrecioUnitario", "Categoria_encoded", "Mes", "DiaSemana", "Hora_24h",
}

var (
	// ErrEmptyTrainingSet is returned when there are no rows to fit.
	ErrEmptyTrainingSet = errors.New("empty training set")

	// ErrShapeMismatch is returned for inconsistent matrix or vector sizes.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// ForestConfig contains configuration for random forest fitting.
type ForestConfig struct {
	// Trees is the number of bootstrapped trees.
	// Default: 100.
	Trees int

	// MaxDepth limits tree depth. 0 grows until leaves are pure or
	// MinSamplesLeaf stops them.
	MaxDepth int

	// MinSamplesLeaf is the smallest number of samples in a leaf.
	// Default: 1.
	MinSamplesLeaf int

	// MaxFeatures is how many features each split considers. 0 uses all.
	MaxFeatures int

	// Seed makes fitting reproducible.
	// Default: 42.
	Seed int64

	// Workers bounds concurrent tree fitting. 0 uses GOMAXPROCS via errgroup
	// without a limit.
	Workers int
}

// DefaultForestConfig returns default forest configuration.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:          100,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
}

// Forest is a bagged ensemble of regression trees. Its prediction is the
// mean of the tree predictions.
type Forest struct {
	Trees     []Tree
	NFeatures int
}

// Fit trains a forest on x and y. Tree seeds come from cfg.Seed, so the
// result does not depend on scheduling.
func Fit(ctx context.Context, x [][]float64, y []float64, cfg ForestConfig) (*Forest, error) {
	if len(x) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows but %d targets", ErrShapeMismatch, len(x), len(y))
	}
	dim := len(x[0])
	for i, row := range x {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), dim)
		}
	}

	if cfg.Trees <= 0 {
		cfg.Trees = DefaultForestConfig().Trees
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = 1
	}
	params := treeParams{
		maxDepth:       cfg.MaxDepth,
		minSamplesLeaf: cfg.MinSamplesLeaf,
		maxFeatures:    cfg.MaxFeatures,
	}

	//nolint:gosec // G404: math/rand is acceptable for bootstrap sampling
	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]Tree, cfg.Trees)
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	n := len(x)
	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			//nolint:gosec // G404: math/rand is acceptable for bootstrap sampling
			rng := rand.New(rand.NewSource(seeds[i]))
			sample := make([]int, n)
			for k := range sample {
				sample[k] = rng.Intn(n)
			}
			trees[i] = growTree(x, y, sample, params, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Forest{Trees: trees, NFeatures: dim}, nil
}

// Predict returns the forest estimate for one feature vector.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != f.NFeatures {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(x), f.NFeatures)
	}
	if len(f.Trees) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	s := 0.0
	for i := range f.Trees {
		s += f.Trees[i].Predict(x)
	}
	return s / float64(len(f.Trees)), nil
}

// PredictBatch predicts every row of x.
func (f *Forest) PredictBatch(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := f.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Vector assembles the feature vector in the layout the forest is trained on.
func Vector(quantity, unitPrice float64, categoryCode, month, weekday, hour int) []float64 {
	v := make([]float64, NumFeatures)
	v[FeatQuantity] = quantity
	v[FeatUnitPrice] = unitPrice
	v[FeatCategoryCode] = float64(categoryCode)
	v[FeatMonth] = float64(month)
	v[FeatWeekday] = float64(weekday)
	v[FeatHour] = float64(hour)
	return v
}
