// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/retailscope/internal/config"
)

// ChiMiddlewareConfig configures CORS and rate limiting.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSMaxAge         int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// ChiMiddlewareConfigFrom maps the server configuration.
func ChiMiddlewareConfigFrom(c config.ServerConfig) *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: c.CORSOrigins,
		CORSMaxAge:         86400,
		RateLimitRequests:  c.RateLimitReqs,
		RateLimitWindow:    c.RateLimitWindow,
		RateLimitDisabled:  c.RateLimitOff,
	}
}

// ChiMiddleware builds chi-compatible middleware from one configuration.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware builds the CORS handler once. An empty origin list
// rejects cross-origin requests.
func NewChiMiddleware(c *ChiMiddlewareConfig) *ChiMiddleware {
	return &ChiMiddleware{
		config: c,
		cors: cors.Handler(cors.Options{
			AllowedOrigins: c.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID", "If-None-Match"},
			ExposedHeaders: []string{"X-Request-ID", "ETag"},
			MaxAge:         c.CORSMaxAge,
		}),
	}
}

// CORS returns the go-chi/cors handler.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit limits requests per client IP. Rejected requests receive a 429
// envelope.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled || m.config.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			NewResponseWriter(w, r).Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, "rate limit exceeded", nil)
		}),
	)
}
