// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

// Entry represents a cached item with expiration
type Entry struct {
	Data      any
	ExpiresAt time.Time
}

// Cache is a thread-safe in-memory cache with TTL support. Hit and miss
// counts are exported by the Tiered wrapper.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache whose entries expire after ttl. A background goroutine
// removes expired entries every cleanupInterval until Close is called.
func New(ttl time.Duration) *Cache {
	return NewWithCleanup(ttl, 5*time.Minute)
}

// NewWithCleanup is New with an explicit cleanup interval.
func NewWithCleanup(ttl, cleanupInterval time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop(cleanupInterval)
	return c
}

// Close stops the cleanup goroutine. The cache stays usable.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Get returns the value for key if present and not expired. Expired entries
// are removed on the way out.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.Data, true
}

// Set stores a value with the cache TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		Data:      value,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// Clear removes all entries. Called when a new artifact release is loaded.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

// cleanup removes all expired entries
func (c *Cache) cleanup() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
}

// GenerateKey builds a compact key from a namespace, a release id and query
// parameters. Keys from different releases never collide.
func GenerateKey(method, release string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%s:%v", method, release, params)
	}
	return fmt.Sprintf("%s:%s:%016x", method, release, xxhash.Sum64(data))
}
