// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package serving

import (
	"errors"
	"fmt"
)

// Artifact names reported by UnavailableError.
const (
	ArtifactDataset        = "dataset"
	ArtifactRegressor      = "regressor"
	ArtifactEncoder        = "encoder"
	ArtifactProductCluster = "product_clusters"
	ArtifactClientCluster  = "client_clusters"
)

// TrainingHint tells operators how to produce missing artifacts.
const TrainingHint = "run the train command to publish model artifacts"

var (
	// ErrUnavailable matches every UnavailableError.
	ErrUnavailable = errors.New("capability unavailable")

	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("not found")
)

// UnavailableError reports a capability that cannot run because an artifact
// is not loaded.
type UnavailableError struct {
	Artifact string
}

func (e *UnavailableError) Error() string {
	if e.Artifact == ArtifactDataset {
		return "dataset not loaded"
	}
	return fmt.Sprintf("%s not available: %s", e.Artifact, TrainingHint)
}

// Is lets errors.Is(err, ErrUnavailable) match.
func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// NotFoundError reports an unknown client, product or cluster.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func unavailable(artifact string) error {
	return &UnavailableError{Artifact: artifact}
}
