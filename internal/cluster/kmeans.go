// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package cluster

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// KMeansConfig contains configuration for k-means fitting.
type KMeansConfig struct {
	// K is the requested number of clusters.
	// Default: 5.
	K int

	// Restarts is how many independent k-means++ initializations are run.
	// The run with the lowest inertia wins.
	// Default: 10.
	Restarts int

	// MaxIter bounds the Lloyd iterations of a single run.
	// Default: 300.
	MaxIter int

	// Tolerance stops a run once the total squared centroid shift falls
	// below Tolerance times the mean column variance.
	// Default: 1e-4.
	Tolerance float64

	// Seed makes fitting reproducible.
	// Default: 42.
	Seed int64

	// Workers bounds how many restarts run at once. 0 runs them all.
	Workers int
}

// DefaultKMeansConfig returns default k-means configuration.
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		K:         5,
		Restarts:  10,
		MaxIter:   300,
		Tolerance: 1e-4,
		Seed:      42,
	}
}

func (c KMeansConfig) withDefaults() KMeansConfig {
	d := DefaultKMeansConfig()
	if c.K <= 0 {
		c.K = d.K
	}
	if c.Restarts <= 0 {
		c.Restarts = d.Restarts
	}
	if c.MaxIter <= 0 {
		c.MaxIter = d.MaxIter
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	return c
}

// Diagnostic describes an adjustment made while fitting.
type Diagnostic struct {
	RequestedK int
	EffectiveK int
	Message    string
}

// Model is a fitted scaler plus centroids in scaled space.
type Model struct {
	View       string
	Features   []string
	Scaler     *Scaler
	Centroids  [][]float64
	Inertia    float64
	Iterations int
}

// K returns the number of clusters.
func (m *Model) K() int { return len(m.Centroids) }

// Assign scales raw feature rows and returns the nearest centroid of each.
// Ties go to the lowest cluster index.
func (m *Model) Assign(rows [][]float64) ([]int, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyMatrix
	}
	scaled, err := m.Scaler.Transform(rows)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(scaled))
	for i, p := range scaled {
		labels[i], _ = nearest(p, m.Centroids)
	}
	return labels, nil
}

// FitAssign standardizes m, fits k-means and returns the model with one label
// per row. When fewer distinct rows than K exist, K is lowered to the number
// of distinct rows and a Diagnostic is returned.
func FitAssign(ctx context.Context, m [][]float64, cfg KMeansConfig) (*Model, []int, *Diagnostic, error) {
	cfg = cfg.withDefaults()

	scaler, err := FitScaler(m)
	if err != nil {
		return nil, nil, nil, err
	}
	scaled, err := scaler.Transform(m)
	if err != nil {
		return nil, nil, nil, err
	}

	var diag *Diagnostic
	k := cfg.K
	if distinct := countDistinct(scaled); distinct < k {
		diag = &Diagnostic{
			RequestedK: k,
			EffectiveK: distinct,
			Message:    fmt.Sprintf("requested %d clusters but only %d distinct points", k, distinct),
		}
		k = distinct
	}

	threshold := cfg.Tolerance * meanVariance(scaled)

	//nolint:gosec // G404: math/rand is acceptable for seeding restarts
	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.Restarts)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	results := make([]runResult, cfg.Restarts)
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i := range seeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			//nolint:gosec // G404: math/rand is acceptable for ML initialization
			rng := rand.New(rand.NewSource(seeds[i]))
			results[i] = lloyd(scaled, k, cfg.MaxIter, threshold, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	best := 0
	for i := 1; i < len(results); i++ {
		if results[i].inertia < results[best].inertia {
			best = i
		}
	}
	r := results[best]

	model := &Model{
		Scaler:     scaler,
		Centroids:  r.centroids,
		Inertia:    r.inertia,
		Iterations: r.iterations,
	}
	return model, r.labels, diag, nil
}

type runResult struct {
	centroids  [][]float64
	labels     []int
	inertia    float64
	iterations int
}

// lloyd runs one k-means++ seeded Lloyd's algorithm.
func lloyd(points [][]float64, k, maxIter int, threshold float64, rng *rand.Rand) runResult {
	centroids := seedPlusPlus(points, k, rng)
	labels := make([]int, len(points))
	dim := len(points[0])

	iter := 0
	for iter < maxIter {
		iter++
		for i, p := range points {
			labels[i], _ = nearest(p, centroids)
		}

		next := make([][]float64, k)
		counts := make([]int, k)
		for c := range next {
			next[c] = make([]float64, dim)
		}
		for i, p := range points {
			c := labels[i]
			counts[c]++
			for j, v := range p {
				next[c][j] += v
			}
		}
		for c := range next {
			if counts[c] == 0 {
				// Reseed an empty cluster at the point farthest from its centroid.
				far := farthest(points, labels, centroids)
				copy(next[c], points[far])
				labels[far] = c
				continue
			}
			for j := range next[c] {
				next[c][j] /= float64(counts[c])
			}
		}

		shift := 0.0
		for c := range next {
			shift += sqDist(next[c], centroids[c])
		}
		centroids = next
		if shift <= threshold {
			break
		}
	}

	inertia := 0.0
	for i, p := range points {
		var d float64
		labels[i], d = nearest(p, centroids)
		inertia += d
	}
	return runResult{centroids: centroids, labels: labels, inertia: inertia, iterations: iter}
}

// seedPlusPlus picks k initial centroids with D² weighting.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centroids = append(centroids, clone(first))

	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = sqDist(p, first)
	}

	for len(centroids) < k {
		total := 0.0
		for _, d := range dist {
			total += d
		}
		idx := 0
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range dist {
				acc += d
				if acc >= target && d > 0 {
					idx = i
					break
				}
				idx = i
			}
		} else {
			idx = rng.Intn(len(points))
		}
		c := clone(points[idx])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

func nearest(p []float64, centroids [][]float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

func farthest(points [][]float64, labels []int, centroids [][]float64) int {
	idx, maxDist := 0, -1.0
	for i, p := range points {
		if d := sqDist(p, centroids[labels[i]]); d > maxDist {
			idx, maxDist = i, d
		}
	}
	return idx
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func countDistinct(points [][]float64) int {
	seen := make(map[string]struct{}, len(points))
	var sb strings.Builder
	for _, p := range points {
		sb.Reset()
		for _, v := range p {
			sb.WriteString(strconv.FormatUint(math.Float64bits(v), 16))
			sb.WriteByte(',')
		}
		seen[sb.String()] = struct{}{}
	}
	return len(seen)
}

func meanVariance(points [][]float64) float64 {
	dim := len(points[0])
	n := float64(len(points))
	total := 0.0
	for j := 0; j < dim; j++ {
		mean := 0.0
		for _, p := range points {
			mean += p[j]
		}
		mean /= n
		v := 0.0
		for _, p := range points {
			d := p[j] - mean
			v += d * d
		}
		total += v / n
	}
	if dim == 0 {
		return 0
	}
	return total / float64(dim)
}
