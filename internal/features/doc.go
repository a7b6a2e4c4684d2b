// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package features turns transactions into model inputs.

An Encoder assigns each categorical label its index in sorted order. Unknown
labels encode to SentinelCode (0), which is also the code of the first
sorted label.

GroupBy is a small declarative aggregation engine: a list of grouping keys and
a list of (column, statistic, output name) triples. The four cluster views
(productos, rentabilidad, cantidad, clientes) are data built on top of it,
each adding derived columns and naming its feature columns. Build evaluates a
view, replaces NaN and infinite values with 0, and extracts the feature
matrix.
*/
package features
