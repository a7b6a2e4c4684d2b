// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package artifacts

import "errors"

var (
	// ErrNoRelease is returned when no release has been published yet.
	ErrNoRelease = errors.New("no artifact release published")

	// ErrArtifactNotFound is returned when a release does not contain the
	// requested artifact.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrChecksumMismatch is returned when an artifact's content does not
	// match its manifest checksum.
	ErrChecksumMismatch = errors.New("artifact checksum mismatch")

	// ErrWriterClosed is returned when a committed or aborted writer is used.
	ErrWriterClosed = errors.New("release writer already closed")
)
