// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/retailscope/internal/logging"
)

// Response is the envelope of every API response.
type Response struct {
	Success  bool      `json:"success"`
	Data     any       `json:"data,omitempty"`
	Error    *APIError `json:"error,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

// APIError is the error half of the envelope.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
	Release    string    `json:"release,omitempty"`
	DurationMS int64     `json:"duration_ms"`

	// Count is set for list responses.
	Count *int `json:"count,omitempty"`
}

// ResponseWriter writes enveloped responses for one request.
type ResponseWriter struct {
	w       http.ResponseWriter
	r       *http.Request
	start   time.Time
	release string
}

// NewResponseWriter starts timing the request.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r, start: time.Now()}
}

// WithRelease stamps the serving release on the metadata.
func (rw *ResponseWriter) WithRelease(release string) *ResponseWriter {
	rw.release = release
	return rw
}

func (rw *ResponseWriter) meta() Metadata {
	return Metadata{
		Timestamp:  time.Now().UTC(),
		RequestID:  logging.RequestIDFromContext(rw.r.Context()),
		Release:    rw.release,
		DurationMS: time.Since(rw.start).Milliseconds(),
	}
}

// Success writes 200 with data.
func (rw *ResponseWriter) Success(data any) {
	rw.SuccessStatus(http.StatusOK, data)
}

// SuccessStatus writes data with a custom 2xx status.
func (rw *ResponseWriter) SuccessStatus(status int, data any) {
	rw.writeJSON(status, Response{Success: true, Data: data, Metadata: rw.meta()})
}

// List writes 200 with a slice and its length.
func List[T any](rw *ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	m := rw.meta()
	n := len(items)
	m.Count = &n
	rw.writeJSON(http.StatusOK, Response{Success: true, Data: items, Metadata: m})
}

// Error writes an error envelope.
func (rw *ResponseWriter) Error(status int, code, message string, details any) {
	m := rw.meta()
	rw.writeJSON(status, Response{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: m.RequestID,
		},
		Metadata: m,
	})
}

// BadRequest writes 400 BAD_REQUEST.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, message, nil)
}

func (rw *ResponseWriter) writeJSON(status int, body Response) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(rw.w, `{"success":false}`, http.StatusInternalServerError)
		return
	}

	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(status)
	if _, err := rw.w.Write(data); err != nil {
		logging.Ctx(rw.r.Context()).Debug().Err(err).Msg("Failed to write JSON response")
	}
}
