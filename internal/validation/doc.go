// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package validation checks API request bodies with go-playground/validator v10.

A single validator instance is shared by all handlers. Field names in errors
are the JSON names of the request body, so a message reads
"cantidad must be less than or equal to 1000000".

Custom tags:
  - clientid: non-empty after trimming and ".0" removal, no inner whitespace
  - finite: float fields must not be NaN or Inf

Usage:

	var req serving.PredictRequest
	if err := validation.Struct(&req); err != nil {
	    var rerr *validation.RequestError
	    errors.As(err, &rerr)
	    // respond 400 with rerr.Details()
	}
*/
package validation
