// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

const defaultBatchSize = 4096

// Options tunes CSV parsing.
type Options struct {
	// Workers bounds concurrent batch parsers. 0 = runtime.NumCPU().
	Workers int

	// BatchSize is the number of records handed to one parser.
	BatchSize int
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	return o
}

// LoadStats reports what a load repaired or dropped.
type LoadStats struct {
	Rows       int // rows returned
	Skipped    int // records the CSV reader could not tokenize
	ShortRows  int // rows missing trailing fields, padded with defaults
	BadDates   int // rows whose date became missing
	BadNumbers int // numeric fields that fell back to 0
}

func (s *LoadStats) add(o LoadStats) {
	s.Rows += o.Rows
	s.Skipped += o.Skipped
	s.ShortRows += o.ShortRows
	s.BadDates += o.BadDates
	s.BadNumbers += o.BadNumbers
}

// columnIndex holds header positions; -1 marks an absent optional column.
type columnIndex struct {
	code, descEN, descES, category int
	qty, price, client, invoice    int
	date, hour                     int
	width                          int
}

func indexColumns(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		pos[h] = i
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := pos[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return columnIndex{}, &MissingColumnsError{Columns: missing}
	}

	lookup := func(name string) int {
		if i, ok := pos[name]; ok {
			return i
		}
		return -1
	}
	return columnIndex{
		code:     pos[ColProductCode],
		descEN:   pos[ColDescriptionEN],
		descES:   pos[ColDescriptionES],
		category: pos[ColCategory],
		qty:      pos[ColQuantity],
		price:    pos[ColUnitPrice],
		client:   pos[ColClientID],
		invoice:  lookup(ColInvoiceID),
		date:     pos[ColDate],
		hour:     lookup(ColHour),
		width:    len(header),
	}, nil
}

// LoadCSV reads the transaction CSV at path. Derived fields are not filled.
func LoadCSV(ctx context.Context, path string, opts Options) ([]Transaction, LoadStats, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadCSV(ctx, f, opts)
}

type batchResult struct {
	rows  []Transaction
	stats LoadStats
}

// ReadCSV parses transactions from r. Records are grouped into batches that
// are parsed concurrently; the returned slice keeps input order.
func ReadCSV(ctx context.Context, r io.Reader, opts Options) ([]Transaction, LoadStats, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(bufio.NewReaderSize(r, 1<<20))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, LoadStats{}, ErrEmptyInput
	}
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("read header: %w", err)
	}
	idx, err := indexColumns(header)
	if err != nil {
		return nil, LoadStats{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	var (
		parts   []*batchResult
		skipped int
		batch   = make([][]string, 0, opts.BatchSize)
	)
	dispatch := func() {
		res := &batchResult{}
		parts = append(parts, res)
		records := batch
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res.rows, res.stats = parseBatch(records, idx)
			return nil
		})
		batch = make([][]string, 0, opts.BatchSize)
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			_ = g.Wait()
			return nil, LoadStats{}, fmt.Errorf("read record: %w", err)
		}

		batch = append(batch, rec)
		if len(batch) == opts.BatchSize {
			if err := ctx.Err(); err != nil {
				_ = g.Wait()
				return nil, LoadStats{}, err
			}
			dispatch()
		}
	}
	if len(batch) > 0 {
		dispatch()
	}

	if err := g.Wait(); err != nil {
		return nil, LoadStats{}, fmt.Errorf("parse batches: %w", err)
	}

	stats := LoadStats{Skipped: skipped}
	total := 0
	for _, p := range parts {
		total += len(p.rows)
	}
	rows := make([]Transaction, 0, total)
	for _, p := range parts {
		rows = append(rows, p.rows...)
		stats.add(p.stats)
	}
	return rows, stats, nil
}

func parseBatch(records [][]string, idx columnIndex) ([]Transaction, LoadStats) {
	rows := make([]Transaction, len(records))
	var st LoadStats
	for i, rec := range records {
		if len(rec) < idx.width {
			st.ShortRows++
		}
		rows[i] = parseRecord(rec, idx, &st)
	}
	st.Rows = len(rows)
	return rows, st
}

func parseRecord(rec []string, idx columnIndex, st *LoadStats) Transaction {
	field := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	tx := Transaction{
		ProductCode:   strings.TrimSpace(field(idx.code)),
		DescriptionEN: strings.TrimSpace(field(idx.descEN)),
		DescriptionES: strings.TrimSpace(field(idx.descES)),
		Category:      strings.TrimSpace(field(idx.category)),
		ClientID:      NormalizeID(field(idx.client)),
		InvoiceID:     NormalizeID(field(idx.invoice)),
	}

	var ok bool
	if tx.Quantity, ok = parseNumber(field(idx.qty)); !ok {
		st.BadNumbers++
	}
	if tx.UnitPrice, ok = parseNumber(field(idx.price)); !ok {
		st.BadNumbers++
	}
	if idx.hour >= 0 {
		if tx.Hour, ok = parseHour(field(idx.hour)); !ok {
			st.BadNumbers++
		}
	}
	if tx.Date, tx.HasDate = ParseDate(field(idx.date)); !tx.HasDate {
		st.BadDates++
	}
	return tx
}
