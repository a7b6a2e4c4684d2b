// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package serving

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retailscope/internal/cache"
)

// Cached query methods. Each is part of the cache key and the unit dropped
// from the snapshot store when a release is replaced.
var cachedMethods = []string{
	methodStats, methodTopProducts, methodCategories, methodTopClients,
	methodProducts, methodCategoryList, methodClients,
	methodProductClusters, methodClientClusters,
}

// Service answers dashboard, cluster and prediction queries against the
// bundle currently published by its Holder.
type Service struct {
	holder *Holder
	cache  *cache.Tiered
	logger zerolog.Logger
	now    func() time.Time
}

// NewService wires a service to holder. c may be nil to disable caching.
// Every bundle swap clears the memory tier and drops snapshots of the
// replaced bundle.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(holder *Holder, c *cache.Tiered, logger zerolog.Logger) *Service {
	s := &Service{holder: holder, cache: c, logger: logger, now: time.Now}
	holder.OnSwap(s.onSwap)
	return s
}

// WithClock replaces the time source used for calendar features.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Holder returns the bundle holder.
func (s *Service) Holder() *Holder { return s.holder }

func (s *Service) onSwap(old, cur *Bundle) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate()
	if old == nil || old.Fingerprint == cur.Fingerprint {
		return
	}
	for _, m := range cachedMethods {
		if err := s.cache.DropRelease(m, old.Fingerprint); err != nil {
			s.logger.Warn().Err(err).Str("method", m).Msg("Failed to drop stale snapshots")
		}
	}
}
