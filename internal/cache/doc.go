// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package cache memoizes dashboard and cluster query results.

Cache is a thread-safe in-memory map with per-entry TTL and a background
cleanup goroutine. SnapshotStore persists JSON snapshots in BadgerDB so a
restarted server can reuse results computed for the same artifact release.
Tiered combines the two: Fetch checks memory, then disk, then computes.

Keys come from GenerateKey and embed the release id, so results for an old
release are never served after a reload:

	key := cache.GenerateKey("top-products", release, params)
	rows, err := cache.Fetch(tiered, key, func() ([]Row, error) { ... })
*/
package cache
