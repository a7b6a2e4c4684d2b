// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package training runs the offline pipeline behind cmd/train.

A run loads the transactions, fits the category encoder and the revenue
forest, builds the configured product clustering view and the client view,
and publishes everything as one artifact release:

	report, err := training.Run(ctx, cfg, logger)

Plan resolves the skip flags. Stages that are skipped copy their artifacts
from the current release, so serving keeps a model it already had. The
encoder is only carried together with the forest it was fitted for.

A non-finite feature matrix after sanitizing aborts the run and discards the
staged release; k larger than the number of distinct entities is clamped and
reported in the view's Diagnostic.
*/
package training
