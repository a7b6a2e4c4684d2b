// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sample is one served request.
type Sample struct {
	Route    string
	Method   string
	Status   int
	Duration time.Duration
	At       time.Time
}

// RouteStats aggregates the samples of one method and route.
type RouteStats struct {
	Route    string  `json:"route"`
	Requests int     `json:"requests"`
	Errors   int     `json:"errors"`
	MeanMS   float64 `json:"mean_ms"`
	P50MS    float64 `json:"p50_ms"`
	P95MS    float64 `json:"p95_ms"`
	P99MS    float64 `json:"p99_ms"`
	MaxMS    float64 `json:"max_ms"`
}

// LatencyMonitor keeps a sliding window of recent requests and logs the ones
// slower than a threshold.
type LatencyMonitor struct {
	mu      sync.RWMutex
	samples []Sample
	next    int
	full    bool
	slow    time.Duration
	logger  zerolog.Logger
}

// NewLatencyMonitor keeps the last window samples. slow <= 0 disables slow
// request logging.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewLatencyMonitor(window int, slow time.Duration, logger zerolog.Logger) *LatencyMonitor {
	if window <= 0 {
		window = 1000
	}
	return &LatencyMonitor{
		samples: make([]Sample, window),
		slow:    slow,
		logger:  logger,
	}
}

// Record adds s to the window, evicting the oldest sample when full.
func (m *LatencyMonitor) Record(s Sample) {
	m.mu.Lock()
	m.samples[m.next] = s
	m.next = (m.next + 1) % len(m.samples)
	if m.next == 0 {
		m.full = true
	}
	m.mu.Unlock()

	if m.slow > 0 && s.Duration > m.slow {
		m.logger.Warn().
			Str("method", s.Method).
			Str("route", s.Route).
			Int("status", s.Status).
			Dur("duration", s.Duration).
			Dur("threshold", m.slow).
			Msg("Slow request detected")
	}
}

func (m *LatencyMonitor) window() []Sample {
	if m.full {
		return m.samples
	}
	return m.samples[:m.next]
}

// Stats returns per-route statistics, busiest route first.
func (m *LatencyMonitor) Stats() []RouteStats {
	m.mu.RLock()
	byRoute := make(map[string][]Sample)
	for _, s := range m.window() {
		key := s.Method + " " + s.Route
		byRoute[key] = append(byRoute[key], s)
	}
	m.mu.RUnlock()

	out := make([]RouteStats, 0, len(byRoute))
	for route, samples := range byRoute {
		ms := make([]float64, len(samples))
		st := RouteStats{Route: route, Requests: len(samples)}
		var sum float64
		for i, s := range samples {
			ms[i] = float64(s.Duration) / float64(time.Millisecond)
			sum += ms[i]
			if s.Status >= http.StatusInternalServerError {
				st.Errors++
			}
		}
		sort.Float64s(ms)
		st.MeanMS = sum / float64(len(ms))
		st.P50MS = percentile(ms, 0.50)
		st.P95MS = percentile(ms, 0.95)
		st.P99MS = percentile(ms, 0.99)
		st.MaxMS = ms[len(ms)-1]
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Requests != out[j].Requests {
			return out[i].Requests > out[j].Requests
		}
		return out[i].Route < out[j].Route
	})
	return out
}

// Middleware records every request served by next.
func (m *LatencyMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)
		m.Record(Sample{
			Route:    routePattern(r),
			Method:   r.Method,
			Status:   rec.status,
			Duration: time.Since(start),
			At:       start,
		})
	})
}

// percentile uses nearest-rank on an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
