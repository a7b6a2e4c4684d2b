// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput is returned when the source has no header row.
	ErrEmptyInput = errors.New("dataset: input has no header")

	// ErrInvalidTable is returned for DuckDB table names that are not plain identifiers.
	ErrInvalidTable = errors.New("dataset: invalid table name")
)

// MissingColumnsError lists required columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("dataset: missing required columns: %s", strings.Join(e.Columns, ", "))
}
