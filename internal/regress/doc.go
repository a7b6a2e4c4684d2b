// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package regress implements the revenue regressor: a random forest of CART
// trees fitted on bootstrap samples with mean-squared-error splits.
//
// The input is the six-column vector built by Vector (quantity, unit price,
// category code, month, weekday, hour). Trees are grown concurrently, each
// from its own seed drawn from the forest seed.
package regress
