// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/retailscope/internal/serving"
	"github.com/tomtom215/retailscope/internal/validation"
)

type clusterQuery func(context.Context, serving.ClusterFilter) (*serving.ClusterReport, error)

// ProductClusters handles GET /api/v1/clusters/products.
func (h *Handler) ProductClusters(w http.ResponseWriter, r *http.Request) {
	h.clusters(w, r, h.svc.ProductClusters)
}

// ClientClusters handles GET /api/v1/clusters/clients.
func (h *Handler) ClientClusters(w http.ResponseWriter, r *http.Request) {
	h.clusters(w, r, h.svc.ClientClusters)
}

func (h *Handler) clusters(w http.ResponseWriter, r *http.Request, query clusterQuery) {
	rw := h.writer(w, r)

	var f serving.ClusterFilter
	id, ok, err := intParam(r, "cluster")
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	if ok {
		if id < 0 {
			writeServiceError(rw, &validation.RequestError{Fields: []validation.FieldError{{
				Field: "cluster", Tag: "gte", Param: "0", Message: "cluster must be greater than or equal to 0",
			}}})
			return
		}
		f.Cluster = &id
	}

	report, err := query(r.Context(), f)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(report)
}
