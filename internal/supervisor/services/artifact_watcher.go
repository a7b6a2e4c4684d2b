// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/retailscope/internal/serving"
)

// BundleHolder is the part of serving.Holder the watcher drives.
type BundleHolder interface {
	Current() *serving.Bundle
	Reload(ctx context.Context) (*serving.Bundle, error)
}

// ProbeFunc returns the fingerprint a fresh load would have.
type ProbeFunc func(ctx context.Context) (string, error)

// WatcherConfig configures ArtifactWatcher.
type WatcherConfig struct {
	// Interval between probes.
	// Default: 30s
	Interval time.Duration

	// Burst is the number of reloads allowed per Per without throttling.
	// Default: 2
	Burst int

	// Per is the window the burst refills over.
	// Default: 1m
	Per time.Duration
}

// ArtifactWatcher reloads the serving bundle when the probed fingerprint
// differs from the published one.
type ArtifactWatcher struct {
	holder   BundleHolder
	probe    ProbeFunc
	interval time.Duration
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// NewArtifactWatcher builds a watcher. Zero config fields take defaults.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewArtifactWatcher(holder BundleHolder, probe ProbeFunc, cfg WatcherConfig, logger zerolog.Logger) *ArtifactWatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 2
	}
	if cfg.Per <= 0 {
		cfg.Per = time.Minute
	}
	return &ArtifactWatcher{
		holder:   holder,
		probe:    probe,
		interval: cfg.Interval,
		limiter:  rate.NewLimiter(rate.Every(cfg.Per/time.Duration(cfg.Burst)), cfg.Burst),
		logger:   logger.With().Str("component", "artifact-watcher").Logger(),
	}
}

// Serve implements suture.Service.
func (w *ArtifactWatcher) Serve(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.interval).Msg("Watching for new releases")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check probes once and reloads on change. It reports whether a new bundle
// was published.
func (w *ArtifactWatcher) Check(ctx context.Context) bool {
	want, err := w.probe(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Artifact probe failed")
		return false
	}

	cur := w.holder.Current()
	if cur != nil && cur.Fingerprint == want {
		return false
	}

	if !w.limiter.Allow() {
		w.logger.Debug().Str("fingerprint", want).Msg("Reload deferred by rate limit")
		return false
	}

	b, err := w.holder.Reload(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Reload failed; keeping previous bundle")
		return false
	}
	w.logger.Info().
		Str("release", b.Release).
		Str("fingerprint", b.Fingerprint).
		Msg("Artifacts changed; bundle reloaded")
	return true
}

// String names the service in supervisor logs.
func (w *ArtifactWatcher) String() string {
	return "artifact-watcher"
}
