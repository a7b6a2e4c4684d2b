// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retailscope/internal/config"
	"github.com/tomtom215/retailscope/internal/metrics"
)

// Source kinds.
const (
	KindCSV    = "csv"
	KindDuckDB = "duckdb"
)

// Source selects where transactions come from.
type Source struct {
	Kind        string
	Path        string // CSV file
	DuckDBPath  string
	DuckDBTable string
	Options     Options
}

// SourceFromConfig maps the data section of the configuration to a Source.
func SourceFromConfig(c config.DataConfig) Source {
	return Source{
		Kind:        c.Source,
		Path:        c.Path,
		DuckDBPath:  c.DuckDBPath,
		DuckDBTable: c.DuckDBTable,
		Options:     Options{Workers: c.ParseWorkers, BatchSize: c.BatchSize},
	}
}

// Load reads the configured source, derives revenue and calendar fields, and
// records load metrics. Repaired rows are logged at warn level.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Load(ctx context.Context, src Source, logger zerolog.Logger) ([]Transaction, LoadStats, error) {
	start := time.Now()

	var (
		rows  []Transaction
		stats LoadStats
		err   error
	)
	switch src.Kind {
	case KindCSV, "":
		rows, stats, err = LoadCSV(ctx, src.Path, src.Options)
	case KindDuckDB:
		rows, stats, err = LoadDuckDB(ctx, src.DuckDBPath, src.DuckDBTable)
	default:
		err = fmt.Errorf("unknown dataset source %q", src.Kind)
	}
	if err != nil {
		return nil, LoadStats{}, err
	}

	Derive(rows)

	kind := src.Kind
	if kind == "" {
		kind = KindCSV
	}
	elapsed := time.Since(start)
	metrics.RecordDatasetLoad(kind, stats.Rows, stats.BadDates, stats.BadNumbers, stats.ShortRows, elapsed)

	event := logger.Info()
	if stats.Skipped > 0 || stats.ShortRows > 0 || stats.BadDates > 0 || stats.BadNumbers > 0 {
		event = logger.Warn()
	}
	event.
		Str("source", kind).
		Int("rows", stats.Rows).
		Int("skipped", stats.Skipped).
		Int("short_rows", stats.ShortRows).
		Int("bad_dates", stats.BadDates).
		Int("bad_numbers", stats.BadNumbers).
		Dur("elapsed", elapsed).
		Msg("Transactions loaded")

	return rows, stats, nil
}
