// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package logging provides the process-wide zerolog logger for RetailScope.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("release", id).Msg("Artifacts loaded")
//	logging.Ctx(r.Context()).Warn().Msg("unseen category")
//
// Components that own long-lived state (the training pipeline, the serving
// holder, supervisor services) take a zerolog.Logger in their constructor and
// derive a child with a "component" field rather than calling the globals.
//
// # slog bridge
//
// NewSlogLogger exposes the same output as a *slog.Logger so that libraries
// built on log/slog (sutureslog) land in the same stream.
package logging
