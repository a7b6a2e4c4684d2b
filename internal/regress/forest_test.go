// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package regress

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
)

// revenueData builds rows where the target is quantity * price.
func revenueData() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for q := 1; q <= 10; q++ {
		for p := 1; p <= 5; p++ {
			x = append(x, Vector(float64(q), float64(p), p%3, 1+q%12, q%7, 8+p))
			y = append(y, float64(q*p))
		}
	}
	return x, y
}

func TestTreeStepFunction(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {10}, {11}, {12}}
	y := []float64{5, 5, 5, 20, 20, 20}
	idx := []int{0, 1, 2, 3, 4, 5}

	tree := growTree(x, y, idx, treeParams{minSamplesLeaf: 1}, rand.New(rand.NewSource(1)))
	if len(tree.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(tree.Nodes))
	}
	root := tree.Nodes[0]
	if root.Feature != 0 || root.Threshold != 6.5 {
		t.Errorf("root split = feature %d at %v, want 0 at 6.5", root.Feature, root.Threshold)
	}
	if got := tree.Predict([]float64{2.5}); got != 5 {
		t.Errorf("Predict(2.5) = %v, want 5", got)
	}
	if got := tree.Predict([]float64{100}); got != 20 {
		t.Errorf("Predict(100) = %v, want 20", got)
	}
}

func TestTreeRespectsLimits(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{1, 2, 3, 4}
	idx := []int{0, 1, 2, 3}

	stump := growTree(x, y, idx, treeParams{maxDepth: 1, minSamplesLeaf: 1}, rand.New(rand.NewSource(1)))
	if len(stump.Nodes) != 3 {
		t.Errorf("depth-1 tree has %d nodes, want 3", len(stump.Nodes))
	}
	leafy := growTree(x, y, idx, treeParams{minSamplesLeaf: 3}, rand.New(rand.NewSource(1)))
	if len(leafy.Nodes) != 1 || leafy.Nodes[0].Value != 2.5 {
		t.Errorf("min-leaf tree = %+v, want a single leaf at 2.5", leafy.Nodes)
	}
}

func TestForestFitsRevenue(t *testing.T) {
	x, y := revenueData()
	forest, err := Fit(context.Background(), x, y, ForestConfig{Trees: 30, Seed: 42, Workers: 4})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	pred, err := forest.PredictBatch(x)
	if err != nil {
		t.Fatalf("PredictBatch() error = %v", err)
	}
	if r2 := R2(y, pred); r2 < 0.9 {
		t.Errorf("train R2 = %v, want >= 0.9", r2)
	}
}

func TestForestDeterministic(t *testing.T) {
	x, y := revenueData()
	cfg := ForestConfig{Trees: 10, Seed: 7, MaxFeatures: 3, Workers: 3}
	a, err := Fit(context.Background(), x, y, cfg)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	b, err := Fit(context.Background(), x, y, cfg)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	probe := Vector(4, 2.5, 1, 6, 3, 12)
	pa, _ := a.Predict(probe)
	pb, _ := b.Predict(probe)
	if pa != pb {
		t.Errorf("predictions differ: %v vs %v", pa, pb)
	}
}

func TestForestErrors(t *testing.T) {
	tests := []struct {
		name string
		x    [][]float64
		y    []float64
		want error
	}{
		{"empty", nil, nil, ErrEmptyTrainingSet},
		{"length mismatch", [][]float64{{1}}, []float64{1, 2}, ErrShapeMismatch},
		{"ragged rows", [][]float64{{1, 2}, {1}}, []float64{1, 2}, ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Fit(context.Background(), tt.x, tt.y, ForestConfig{Trees: 2}); !errors.Is(err, tt.want) {
				t.Errorf("Fit() error = %v, want %v", err, tt.want)
			}
		})
	}

	forest, err := Fit(context.Background(), [][]float64{{1, 2}, {3, 4}}, []float64{1, 2}, ForestConfig{Trees: 2})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := forest.Predict([]float64{1}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Predict() wrong width error = %v", err)
	}
}

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(10, 0.2, 42)
	if len(train) != 8 || len(test) != 2 {
		t.Fatalf("split = %d/%d, want 8/2", len(train), len(test))
	}
	seen := map[int]bool{}
	for _, i := range append(append([]int{}, train...), test...) {
		if seen[i] {
			t.Fatalf("index %d appears twice", i)
		}
		seen[i] = true
	}
	if len(seen) != 10 {
		t.Errorf("split covers %d indices, want 10", len(seen))
	}

	again, _ := TrainTestSplit(10, 0.2, 42)
	for i := range train {
		if train[i] != again[i] {
			t.Fatal("split is not reproducible")
		}
	}

	one, none := TrainTestSplit(1, 0.2, 42)
	if len(one) != 1 || len(none) != 0 {
		t.Errorf("single-row split = %d/%d, want 1/0", len(one), len(none))
	}
}

func TestR2(t *testing.T) {
	tests := []struct {
		name  string
		truth []float64
		pred  []float64
		want  float64
	}{
		{"perfect", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"mean", []float64{1, 2, 3}, []float64{2, 2, 2}, 0},
		{"constant exact", []float64{4, 4}, []float64{4, 4}, 1},
		{"constant miss", []float64{4, 4}, []float64{3, 4}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := R2(tt.truth, tt.pred); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("R2() = %v, want %v", got, tt.want)
			}
		})
	}
}
