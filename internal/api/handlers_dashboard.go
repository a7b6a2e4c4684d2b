// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package api

import (
	"net/http"

	"github.com/tomtom215/retailscope/internal/serving"
)

// DashboardStats handles GET /api/v1/dashboard/stats.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	if h.notModified(w, r) {
		return
	}
	rw := h.writer(w, r)
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(stats)
}

// TopProducts handles GET /api/v1/dashboard/top-products.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	rw := h.writer(w, r)
	limit, err := limitParam(r, serving.DefaultTopN)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	if h.notModified(w, r) {
		return
	}
	rows, err := h.svc.TopProducts(r.Context(), limit)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	List(rw, rows)
}

// CategorySales handles GET /api/v1/dashboard/categories.
func (h *Handler) CategorySales(w http.ResponseWriter, r *http.Request) {
	if h.notModified(w, r) {
		return
	}
	rw := h.writer(w, r)
	rows, err := h.svc.Categories(r.Context())
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	List(rw, rows)
}

// TopClients handles GET /api/v1/dashboard/top-clients.
func (h *Handler) TopClients(w http.ResponseWriter, r *http.Request) {
	rw := h.writer(w, r)
	limit, err := limitParam(r, serving.DefaultTopN)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	if h.notModified(w, r) {
		return
	}
	rows, err := h.svc.TopClients(r.Context(), limit)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	List(rw, rows)
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.notModified(w, r) {
		return
	}
	rw := h.writer(w, r)
	rows, err := h.svc.Products(r.Context())
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	List(rw, rows)
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if h.notModified(w, r) {
		return
	}
	rw := h.writer(w, r)
	names, err := h.svc.CategoryList(r.Context())
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	List(rw, names)
}

// Clients handles GET /api/v1/clients.
func (h *Handler) Clients(w http.ResponseWriter, r *http.Request) {
	if h.notModified(w, r) {
		return
	}
	rw := h.writer(w, r)
	rows, err := h.svc.Clients(r.Context())
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	List(rw, rows)
}
