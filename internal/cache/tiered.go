// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package cache

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retailscope/internal/metrics"
)

// Metric tier labels.
const (
	TierMemory = "memory"
	TierDisk   = "disk"
)

// Tiered looks values up in memory first and then in an optional persistent
// snapshot store, filling the faster tier on the way back.
type Tiered struct {
	mem    *Cache
	disk   *SnapshotStore
	logger zerolog.Logger
}

// NewTiered combines mem with disk. disk may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewTiered(mem *Cache, disk *SnapshotStore, logger zerolog.Logger) *Tiered {
	return &Tiered{mem: mem, disk: disk, logger: logger}
}

// Fetch returns the cached value for key or computes it with fn. Values read
// back from disk are decoded into a fresh T.
func Fetch[T any](t *Tiered, key string, fn func() (T, error)) (T, error) {
	if t == nil {
		return fn()
	}
	if v, ok := t.mem.Get(key); ok {
		if typed, ok := v.(T); ok {
			metrics.RecordCacheHit(TierMemory)
			return typed, nil
		}
	}

	if t.disk != nil {
		var stored T
		err := t.disk.Get(key, &stored)
		switch {
		case err == nil:
			metrics.RecordCacheHit(TierDisk)
			t.mem.Set(key, stored)
			return stored, nil
		case !errors.Is(err, ErrSnapshotNotFound):
			t.logger.Warn().Err(err).Str("key", key).Msg("Snapshot read failed")
		}
	}

	metrics.RecordCacheMiss()
	v, err := fn()
	if err != nil {
		return v, err
	}
	t.mem.Set(key, v)
	if t.disk != nil {
		if err := t.disk.Put(key, v); err != nil {
			t.logger.Warn().Err(err).Str("key", key).Msg("Snapshot write failed")
		}
	}
	return v, nil
}

// Invalidate clears the memory tier. Disk snapshots are keyed by release and
// expire on their own.
func (t *Tiered) Invalidate() {
	if t == nil {
		return
	}
	t.mem.Clear()
}

// Close releases the persistent tier and stops memory cleanup.
func (t *Tiered) Close() error {
	if t == nil {
		return nil
	}
	t.mem.Close()
	if t.disk != nil {
		return t.disk.Close()
	}
	return nil
}

// DropRelease removes persisted snapshots of an outdated release.
func (t *Tiered) DropRelease(method, release string) error {
	if t == nil || t.disk == nil || release == "" {
		return nil
	}
	return t.disk.DropRelease(method, release)
}
