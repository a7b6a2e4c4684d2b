// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/retailscope/internal/serving"
	"github.com/tomtom215/retailscope/internal/validation"
)

// Error codes of the envelope.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = validation.ErrorCode
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            = "TIMEOUT"
)

// statusClientClosedRequest is the nginx convention for abandoned requests.
const statusClientClosedRequest = 499

// writeServiceError maps serving and validation errors to responses.
func writeServiceError(rw *ResponseWriter, err error) {
	var (
		unavailable *serving.UnavailableError
		notFound    *serving.NotFoundError
		invalid     *validation.RequestError
	)

	switch {
	case errors.As(err, &unavailable):
		details := map[string]any{"artifact": unavailable.Artifact}
		if unavailable.Artifact != serving.ArtifactDataset {
			details["hint"] = serving.TrainingHint
		}
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, unavailable.Error(), details)
	case errors.As(err, &notFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, notFound.Error(), map[string]any{"kind": notFound.Kind})
	case errors.As(err, &invalid):
		rw.Error(http.StatusBadRequest, ErrCodeValidation, invalid.Error(), invalid.Details())
	case errors.Is(err, context.DeadlineExceeded):
		rw.Error(http.StatusServiceUnavailable, ErrCodeTimeout, "request timed out", nil)
	case errors.Is(err, context.Canceled):
		rw.w.WriteHeader(statusClientClosedRequest)
	default:
		logErr(rw.r, err)
		rw.Error(http.StatusInternalServerError, ErrCodeInternal, "internal error", nil)
	}
}
