// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package training

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retailscope/internal/cluster"
	"github.com/tomtom215/retailscope/internal/serving"
)

// Report summarizes a training run.
type Report struct {
	Release   string           `json:"release"`
	ReleaseID string           `json:"release_id"`
	Rows      int              `json:"rows"`
	Plan      Plan             `json:"plan"`
	Regressor *RegressorReport `json:"regressor,omitempty"`
	Views     []ViewReport     `json:"views,omitempty"`
	Carried   []string         `json:"carried,omitempty"`
	Pruned    int              `json:"pruned"`
	Duration  time.Duration    `json:"duration_ns"`
}

// RegressorReport holds forest diagnostics. The R² scores are informational.
type RegressorReport struct {
	Trees     int     `json:"trees"`
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
	TrainR2   float64 `json:"train_r2"`
	TestR2    float64 `json:"test_r2"`
}

// ViewReport describes one fitted clustering view.
type ViewReport struct {
	View       string                   `json:"view"`
	Features   []string                 `json:"features"`
	Entities   int                      `json:"entities"`
	RequestedK int                      `json:"requested_k"`
	K          int                      `json:"k"`
	Inertia    float64                  `json:"inertia"`
	Iterations int                      `json:"iterations"`
	Sanitized  int                      `json:"sanitized"`
	Diagnostic string                   `json:"diagnostic,omitempty"`
	Summary    []serving.ClusterSummary `json:"summary"`
	Profiles   []cluster.Profile        `json:"profiles"`
}

// Log writes the run summary and per-cluster statistics.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (r *Report) Log(logger zerolog.Logger) {
	if r.Regressor != nil {
		logger.Info().
			Int("trees", r.Regressor.Trees).
			Int("train_rows", r.Regressor.TrainRows).
			Int("test_rows", r.Regressor.TestRows).
			Float64("train_r2", r.Regressor.TrainR2).
			Float64("test_r2", r.Regressor.TestR2).
			Msg("Regressor trained")
	}

	for _, v := range r.Views {
		logger.Info().
			Str("view", v.View).
			Int("entities", v.Entities).
			Int("k", v.K).
			Float64("inertia", v.Inertia).
			Int("iterations", v.Iterations).
			Msg("Clusters fitted")

		for _, s := range v.Summary {
			ev := logger.Info().
				Str("view", v.View).
				Int("cluster", s.Cluster).
				Int("size", s.Size()).
				Float64("revenue", s.Revenue)
			if s.Clients > 0 {
				ev = ev.Float64("transactions", s.Transactions)
			} else {
				ev = ev.Float64("quantity", s.Quantity)
			}
			if s.Cluster < len(v.Profiles) {
				p := v.Profiles[s.Cluster]
				means := zerolog.Dict()
				for j, f := range v.Features {
					if j < len(p.Means) {
						means = means.Float64(f, p.Means[j])
					}
				}
				ev = ev.Dict("means", means)
			}
			ev.Msg("Cluster statistics")
		}
	}

	logger.Info().
		Str("release", r.Release).
		Str("release_id", r.ReleaseID).
		Int("rows", r.Rows).
		Strs("carried", r.Carried).
		Int("pruned", r.Pruned).
		Dur("duration", r.Duration).
		Msg("Training complete")
}
