// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package cluster segments entities with k-means.

FitAssign standardizes a feature matrix with a Scaler, then runs several
k-means++ initialized Lloyd restarts in parallel and keeps the one with the
lowest inertia. Restart seeds come from a single seeded generator, so the
same input and configuration always produce the same labels.

A fitted Model keeps its Scaler so raw rows can be assigned later with
Assign. Rows whose width differs from the fitted width fail with a
DimensionError.
*/
package cluster
