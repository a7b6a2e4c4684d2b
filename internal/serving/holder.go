// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package serving

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retailscope/internal/metrics"
)

// LoadFunc builds a fresh bundle.
type LoadFunc func(ctx context.Context) (*Bundle, error)

// SwapHook runs after a new bundle is published. old may be nil.
type SwapHook func(old, cur *Bundle)

// Holder publishes the current bundle. Readers call Current once per request
// and keep using that snapshot; reloads never mutate a published bundle.
type Holder struct {
	current atomic.Pointer[Bundle]
	load    LoadFunc
	logger  zerolog.Logger

	reloadMu sync.Mutex
	hooksMu  sync.RWMutex
	hooks    []SwapHook
}

// NewHolder creates an empty holder. Call Reload to publish the first bundle.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHolder(load LoadFunc, logger zerolog.Logger) *Holder {
	return &Holder{load: load, logger: logger}
}

// Current returns the published bundle, or nil before the first load.
func (h *Holder) Current() *Bundle {
	return h.current.Load()
}

// OnSwap registers fn to run after every publish.
func (h *Holder) OnSwap(fn SwapHook) {
	h.hooksMu.Lock()
	h.hooks = append(h.hooks, fn)
	h.hooksMu.Unlock()
}

// Reload loads a new bundle and publishes it. Concurrent calls are
// serialized. On failure the previous bundle stays in place.
func (h *Holder) Reload(ctx context.Context) (*Bundle, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	b, err := h.load(ctx)
	metrics.RecordBundleReload(err)
	if err != nil {
		h.logger.Error().Err(err).Msg("Bundle reload failed; keeping previous bundle")
		return nil, err
	}
	h.Set(b)
	return b, nil
}

// Set publishes b directly.
func (h *Holder) Set(b *Bundle) {
	old := h.current.Swap(b)

	h.hooksMu.RLock()
	hooks := append([]SwapHook(nil), h.hooks...)
	h.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(old, b)
	}

	ev := h.logger.Info().Str("release", b.Release)
	if old != nil {
		ev = ev.Str("previous_release", old.Release)
	}
	ev.Msg("Bundle published")
}
