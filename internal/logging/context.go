// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	releaseIDKey contextKey = "release_id"
)

// GenerateRequestID returns a new UUIDv4 string.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID stores an HTTP request ID on ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID or "" when none is set.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithReleaseID tags ctx with the artifact release serving the request.
func ContextWithReleaseID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, releaseIDKey, id)
}

// ReleaseIDFromContext returns the artifact release ID or "".
func ReleaseIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(releaseIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger enriched with the IDs carried by ctx.
//
//	logging.Ctx(r.Context()).Info().Msg("prediction served")
func Ctx(ctx context.Context) *zerolog.Logger {
	lc := Logger().With()
	if id := RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	if id := ReleaseIDFromContext(ctx); id != "" {
		lc = lc.Str("release_id", id)
	}
	l := lc.Logger()
	return &l
}

// WithComponent creates a child of the global logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
