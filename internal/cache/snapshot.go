// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const snapshotKeyPrefix = "snapshot:"

// ErrSnapshotNotFound is returned when no snapshot is stored for a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists JSON snapshots of query results in BadgerDB so a
// restarted server can answer dashboard queries without recomputing them.
type SnapshotStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenSnapshotStore opens (or creates) a Badger database at dir. An empty dir
// opens an in-memory store.
func OpenSnapshotStore(dir string, ttl time.Duration) (*SnapshotStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &SnapshotStore{db: db, ttl: ttl}, nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Put stores value under key. Entries expire after the store TTL when it is
// positive.
func (s *SnapshotStore) Put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(snapshotKeyPrefix+key), data)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Get decodes the snapshot stored under key into target.
func (s *SnapshotStore) Get(key string, target any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSnapshotNotFound
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, target)
		})
	})
}

// DropRelease removes every snapshot whose key was built for release.
func (s *SnapshotStore) DropRelease(method, release string) error {
	return s.db.DropPrefix([]byte(snapshotKeyPrefix + method + ":" + release + ":"))
}
