// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package api

import (
	"net/http"

	"github.com/tomtom215/retailscope/internal/serving"
	"github.com/tomtom215/retailscope/internal/validation"
)

// Predict handles POST /api/v1/predict. Missing fields are filled from the
// product's history; the trace in the response names the rule used for each.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	rw := h.writer(w, r)

	var req serving.PredictRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(rw, err)
		return
	}

	pred, err := h.svc.Predict(r.Context(), req)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(pred)
}

// PredictClient handles POST /api/v1/predict/client.
func (h *Handler) PredictClient(w http.ResponseWriter, r *http.Request) {
	rw := h.writer(w, r)

	var req validation.ClientPredictRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(rw, err)
		return
	}

	pred, err := h.svc.PredictClient(r.Context(), req.ClientID)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(pred)
}
