// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package cluster

// Profile summarizes one cluster in the original feature units.
type Profile struct {
	Cluster int
	Size    int
	Means   []float64
}

// Profiles returns one Profile per cluster id in [0, k), computed from the
// unscaled rows and their labels.
func Profiles(rows [][]float64, labels []int, k int) []Profile {
	out := make([]Profile, k)
	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}
	for c := range out {
		out[c] = Profile{Cluster: c, Means: make([]float64, dim)}
	}
	for i, row := range rows {
		c := labels[i]
		if c < 0 || c >= k {
			continue
		}
		out[c].Size++
		for j, v := range row {
			out[c].Means[j] += v
		}
	}
	for c := range out {
		if out[c].Size == 0 {
			continue
		}
		for j := range out[c].Means {
			out[c].Means[j] /= float64(out[c].Size)
		}
	}
	return out
}
