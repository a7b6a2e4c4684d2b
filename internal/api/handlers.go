// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/retailscope/internal/logging"
	"github.com/tomtom215/retailscope/internal/middleware"
	"github.com/tomtom215/retailscope/internal/serving"
	"github.com/tomtom215/retailscope/internal/validation"
)

const (
	maxBodyBytes = 1 << 20
	maxListLimit = 1000
)

// Handler serves the API endpoints from a serving.Service.
type Handler struct {
	svc     *serving.Service
	latency *middleware.LatencyMonitor
	started time.Time
}

// NewHandler wires the handlers. latency may be nil.
func NewHandler(svc *serving.Service, latency *middleware.LatencyMonitor) *Handler {
	return &Handler{
		svc:     svc,
		latency: latency,
		started: time.Now(),
	}
}

// release returns the current release name, or "".
func (h *Handler) release() string {
	if b := h.svc.Holder().Current(); b != nil {
		return b.Release
	}
	return ""
}

// tagRelease adds the serving release id to the request context so request
// logs name the models that answered.
func (h *Handler) tagRelease(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b := h.svc.Holder().Current(); b != nil && b.ReleaseID != "" {
			r = r.WithContext(logging.ContextWithReleaseID(r.Context(), b.ReleaseID))
		}
		next.ServeHTTP(w, r)
	})
}

// writer returns a ResponseWriter stamped with the current release.
func (h *Handler) writer(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return NewResponseWriter(w, r).WithRelease(h.release())
}

// notModified sets the ETag for the current bundle and request URI and
// answers 304 when the client already holds it.
func (h *Handler) notModified(w http.ResponseWriter, r *http.Request) bool {
	b := h.svc.Holder().Current()
	if b == nil || !b.HasDataset() {
		return false
	}
	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64String(b.Fingerprint+"|"+r.URL.RequestURI()))
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, max-age=0, must-revalidate")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// decodeBody reads a JSON body into v and validates it. An empty body leaves
// v at its zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &validation.RequestError{Fields: []validation.FieldError{{
			Field:   "body",
			Tag:     "json",
			Message: "request body must be a JSON object",
		}}}
	}
	return validation.Struct(v)
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, key string) (int, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, &validation.RequestError{Fields: []validation.FieldError{{
			Field:   key,
			Tag:     "int",
			Message: key + " must be an integer",
		}}}
	}
	return n, true, nil
}

// limitParam parses ?limit within [1, maxListLimit], defaulting to def.
func limitParam(r *http.Request, def int) (int, error) {
	n, ok, err := intParam(r, "limit")
	if err != nil || !ok {
		return def, err
	}
	if n < 1 || n > maxListLimit {
		return 0, &validation.RequestError{Fields: []validation.FieldError{{
			Field:   "limit",
			Tag:     "range",
			Message: fmt.Sprintf("limit must be between 1 and %d", maxListLimit),
		}}}
	}
	return n, nil
}

func logErr(r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Request failed")
}
