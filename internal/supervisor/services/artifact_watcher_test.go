// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/retailscope/internal/serving"
)

var _ suture.Service = (*ArtifactWatcher)(nil)

// fakeHolder publishes bundles whose fingerprint is the current probe value.
type fakeHolder struct {
	mu      sync.Mutex
	current *serving.Bundle
	next    string
	fail    error
	reloads int
}

func (h *fakeHolder) Current() *serving.Bundle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *fakeHolder) Reload(context.Context) (*serving.Bundle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloads++
	if h.fail != nil {
		return nil, h.fail
	}
	h.current = &serving.Bundle{Release: "r-" + h.next, Fingerprint: h.next}
	return h.current, nil
}

func (h *fakeHolder) probe(context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.next, nil
}

func (h *fakeHolder) set(next string, fail error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next, h.fail = next, fail
}

func (h *fakeHolder) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reloads
}

func TestArtifactWatcher_Check(t *testing.T) {
	h := &fakeHolder{next: "fp1"}
	w := NewArtifactWatcher(h, h.probe, WatcherConfig{Burst: 5}, zerolog.Nop())
	ctx := context.Background()

	if !w.Check(ctx) {
		t.Fatal("first check should load a bundle")
	}
	if w.Check(ctx) {
		t.Error("unchanged fingerprint should not reload")
	}

	h.set("fp2", nil)
	if !w.Check(ctx) || h.Current().Fingerprint != "fp2" {
		t.Errorf("changed fingerprint not reloaded: %+v", h.Current())
	}

	h.set("fp3", errors.New("corrupt manifest"))
	if w.Check(ctx) {
		t.Error("failed reload reported success")
	}
	if h.Current().Fingerprint != "fp2" {
		t.Errorf("failed reload replaced bundle: %q", h.Current().Fingerprint)
	}
	if h.count() != 3 {
		t.Errorf("reloads = %d, want 3", h.count())
	}
}

func TestArtifactWatcher_ProbeError(t *testing.T) {
	h := &fakeHolder{}
	probe := func(context.Context) (string, error) { return "", errors.New("permission denied") }
	w := NewArtifactWatcher(h, probe, WatcherConfig{}, zerolog.Nop())
	if w.Check(context.Background()) || h.count() != 0 {
		t.Errorf("probe failure triggered a reload (%d)", h.count())
	}
}

func TestArtifactWatcher_RateLimited(t *testing.T) {
	h := &fakeHolder{}
	w := NewArtifactWatcher(h, h.probe, WatcherConfig{Burst: 2, Per: time.Hour}, zerolog.Nop())
	ctx := context.Background()

	for i, fp := range []string{"a", "b", "c", "d"} {
		h.set(fp, nil)
		got := w.Check(ctx)
		if want := i < 2; got != want {
			t.Errorf("check %d (%s) = %v, want %v", i, fp, got, want)
		}
	}
	if h.count() != 2 {
		t.Errorf("reloads = %d, want 2 within burst", h.count())
	}
}

func TestArtifactWatcher_Serve(t *testing.T) {
	h := &fakeHolder{next: "fp1"}
	w := NewArtifactWatcher(h, h.probe, WatcherConfig{Interval: 5 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	deadline := time.Now().Add(time.Second)
	for h.Current() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if h.Current() == nil || h.Current().Release != "r-fp1" {
		t.Errorf("watcher never published: %+v", h.Current())
	}
}
