// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package training

import (
	"github.com/tomtom215/retailscope/internal/config"
	"github.com/tomtom215/retailscope/internal/features"
)

// Plan lists the stages a run executes.
type Plan struct {
	// Prediction fits the revenue forest.
	Prediction bool

	// ProductView is the product clustering view. Empty skips product
	// clustering.
	ProductView string
	ProductK    int

	// Clients fits the client view with ClientK clusters.
	Clients bool
	ClientK int
}

// NewPlan resolves the skip flags and cluster type of t. Choosing the client
// view as cluster type disables product clustering; the client view then
// runs on its own.
func NewPlan(t config.TrainingConfig) Plan {
	p := Plan{
		Prediction: !t.SkipPrediction,
		ProductK:   t.NClusters,
		ClientK:    t.ClientClusters(),
	}
	if t.SkipClustering {
		return p
	}
	if !t.SkipProductsClustering && t.ClusterType != features.ViewClients {
		p.ProductView = t.ClusterType
	}
	p.Clients = !t.SkipClientsClustering
	return p
}

// Empty reports whether the plan fits nothing.
func (p Plan) Empty() bool {
	return !p.Prediction && p.ProductView == "" && !p.Clients
}
