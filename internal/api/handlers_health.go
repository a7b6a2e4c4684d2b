// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/retailscope/internal/logging"
	"github.com/tomtom215/retailscope/internal/middleware"
)

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status    string          `json:"status"`
	Release   string          `json:"release,omitempty"`
	ReleaseID string          `json:"release_id,omitempty"`
	LoadedAt  *time.Time      `json:"loaded_at,omitempty"`
	Artifacts map[string]bool `json:"artifacts"`
	Uptime    float64         `json:"uptime_seconds"`
}

func (h *Handler) health() HealthStatus {
	b := h.svc.Holder().Current()
	st := HealthStatus{
		Status:    "healthy",
		Artifacts: b.Status(),
		Uptime:    time.Since(h.started).Seconds(),
	}
	if b == nil {
		st.Status = "starting"
		return st
	}
	st.Release = b.Release
	st.ReleaseID = b.ReleaseID
	loaded := b.LoadedAt
	st.LoadedAt = &loaded
	for _, ok := range st.Artifacts {
		if !ok {
			st.Status = "degraded"
		}
	}
	return st
}

// Health handles GET /api/v1/health. It always answers 200 while the
// process is up; Status reports missing artifacts as degraded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writer(w, r).Success(h.health())
}

// Ready handles GET /api/v1/health/ready: 200 once a bundle with the
// dataset is published, else 503.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	st := h.health()
	rw := h.writer(w, r)
	if !h.svc.Holder().Current().HasDataset() {
		st.Status = "not_ready"
		rw.SuccessStatus(http.StatusServiceUnavailable, st)
		return
	}
	rw.Success(st)
}

// Latency handles GET /api/v1/health/latency.
func (h *Handler) Latency(w http.ResponseWriter, r *http.Request) {
	var stats []middleware.RouteStats
	if h.latency != nil {
		stats = h.latency.Stats()
	}
	List(h.writer(w, r), stats)
}

// Reload handles POST /api/v1/admin/reload. The bundle is rebuilt from the
// current release and dataset and swapped in whole; on failure the previous
// bundle keeps serving.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Holder().Reload(r.Context())
	if err != nil {
		writeServiceError(NewResponseWriter(w, r).WithRelease(h.release()), err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Str("release", b.Release).
		Msg("Bundle reloaded on request")
	NewResponseWriter(w, r).WithRelease(b.Release).Success(map[string]any{
		"release":    b.Release,
		"release_id": b.ReleaseID,
		"artifacts":  b.Status(),
	})
}
