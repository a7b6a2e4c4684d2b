// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/retailscope/internal/middleware"
)

// Router assembles the chi route tree.
type Router struct {
	handler *Handler
	mw      *ChiMiddleware
	latency *middleware.LatencyMonitor
	timeout time.Duration
}

// NewRouter builds a router. latency may be nil; timeout <= 0 disables the
// per-request deadline.
func NewRouter(handler *Handler, mw *ChiMiddleware, latency *middleware.LatencyMonitor, timeout time.Duration) *Router {
	return &Router{handler: handler, mw: mw, latency: latency, timeout: timeout}
}

// Setup returns the HTTP handler for the whole API.
func (router *Router) Setup() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.PrometheusMetrics)
	if router.latency != nil {
		r.Use(router.latency.Middleware)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(router.mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusNotFound, ErrCodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if router.timeout > 0 {
			r.Use(chimiddleware.Timeout(router.timeout))
		}
		r.Use(h.tagRelease)

		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.Health)
			r.Get("/ready", h.Ready)
			r.Get("/latency", h.Latency)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Compress(5, "application/json"))

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/stats", h.DashboardStats)
				r.Get("/top-products", h.TopProducts)
				r.Get("/categories", h.CategorySales)
				r.Get("/top-clients", h.TopClients)
			})

			r.Get("/products", h.Products)
			r.Get("/categories", h.Categories)
			r.Get("/clients", h.Clients)

			r.Route("/clusters", func(r chi.Router) {
				r.Get("/products", h.ProductClusters)
				r.Get("/clients", h.ClientClusters)
			})
		})

		// Prediction and reload do real work per call; limit them per IP.
		r.Group(func(r chi.Router) {
			r.Use(router.mw.RateLimit())
			r.Post("/predict", h.Predict)
			r.Post("/predict/client", h.PredictClient)
			r.Post("/admin/reload", h.Reload)
		})
	})

	return r
}
