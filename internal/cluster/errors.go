// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package cluster

import (
	"errors"
	"fmt"
)

// ErrEmptyMatrix is returned when there is nothing to fit or assign.
var ErrEmptyMatrix = errors.New("empty feature matrix")

// ErrDimensionMismatch is matched by DimensionError.
var ErrDimensionMismatch = errors.New("feature dimension mismatch")

// DimensionError reports a row whose width differs from the fitted width.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("feature dimension mismatch: want %d columns, got %d", e.Want, e.Got)
}

// Is lets errors.Is(err, ErrDimensionMismatch) match.
func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
