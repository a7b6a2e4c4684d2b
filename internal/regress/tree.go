// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package regress

import (
	"math/rand"
	"sort"
)

// Node is one node of a regression tree. Leaves have Feature == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a CART regression tree stored as a flat node slice rooted at 0.
type Tree struct {
	Nodes []Node
}

// Predict walks the tree for x. Values equal to a threshold go left.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int
}

type treeBuilder struct {
	x      [][]float64
	y      []float64
	params treeParams
	rng    *rand.Rand
	nodes  []Node

	// scratch
	features []int
	order    []int
}

// growTree fits a tree on the rows listed in idx, which may repeat.
func growTree(x [][]float64, y []float64, idx []int, params treeParams, rng *rand.Rand) Tree {
	dim := len(x[0])
	b := &treeBuilder{
		x:        x,
		y:        y,
		params:   params,
		rng:      rng,
		features: make([]int, dim),
	}
	for j := range b.features {
		b.features[j] = j
	}
	b.build(idx, 0)
	return Tree{Nodes: b.nodes}
}

func mean(y []float64, idx []int) float64 {
	s := 0.0
	for _, i := range idx {
		s += y[i]
	}
	return s / float64(len(idx))
}

// build appends the subtree for idx and returns its node index.
func (b *treeBuilder) build(idx []int, depth int) int {
	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: mean(b.y, idx)})

	if len(idx) < 2*b.params.minSamplesLeaf {
		return self
	}
	if b.params.maxDepth > 0 && depth >= b.params.maxDepth {
		return self
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return self
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	if len(left) == 0 || len(right) == 0 {
		return self
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: b.nodes[self].Value}
	return self
}

// bestSplit searches a random subset of features for the split with the
// largest reduction in squared error.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	minLeaf := b.params.minSamplesLeaf

	total, totalSq := 0.0, 0.0
	for _, i := range idx {
		total += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	parentSSE := totalSq - total*total/float64(n)
	if parentSSE <= 1e-12 {
		return 0, 0, false
	}

	b.rng.Shuffle(len(b.features), func(i, j int) {
		b.features[i], b.features[j] = b.features[j], b.features[i]
	})
	candidates := b.features
	if mf := b.params.maxFeatures; mf > 0 && mf < len(candidates) {
		candidates = candidates[:mf]
	}

	if cap(b.order) < n {
		b.order = make([]int, n)
	}
	order := b.order[:n]

	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	for _, f := range candidates {
		copy(order, idx)
		sort.Slice(order, func(a, c int) bool { return b.x[order[a]][f] < b.x[order[c]][f] })

		leftSum, leftSq := 0.0, 0.0
		for k := 0; k < n-1; k++ {
			yi := b.y[order[k]]
			leftSum += yi
			leftSq += yi * yi

			nl := k + 1
			nr := n - nl
			if nl < minLeaf {
				continue
			}
			if nr < minLeaf {
				break
			}
			cur, next := b.x[order[k]][f], b.x[order[k+1]][f]
			if cur == next {
				continue
			}

			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if gain := parentSSE - sse; gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				if bestThreshold >= next {
					bestThreshold = cur
				}
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}
