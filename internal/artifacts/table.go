// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package artifacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/tomtom215/retailscope/internal/features"
)

// ClusterColumn is the header of the assignment column.
const ClusterColumn = "Cluster"

// ClusterRow is one entity with its cluster assignment.
type ClusterRow struct {
	Keys    []string
	Label   string
	Values  []float64
	Cluster int
}

// ClusterTable is a per-entity cluster assignment table. Its CSV header is
// the key columns, the label column, the value columns and Cluster.
type ClusterTable struct {
	View         string
	KeyColumns   []string
	LabelColumn  string
	ValueColumns []string
	Rows         []ClusterRow
}

// NewClusterTable joins an evaluated view with its cluster labels.
// Intermediate columns are left out.
func NewClusterTable(data *features.ViewData, labels []int) (*ClusterTable, error) {
	if len(labels) != len(data.Table.Rows) {
		return nil, fmt.Errorf("%d labels for %d rows", len(labels), len(data.Table.Rows))
	}
	cols := features.PersistedColumns(data.Table)
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = data.Table.Col(c)
	}

	t := &ClusterTable{
		View:         data.View.Name,
		KeyColumns:   append([]string(nil), data.Table.KeyNames...),
		LabelColumn:  data.View.LabelColumn(),
		ValueColumns: cols,
		Rows:         make([]ClusterRow, len(labels)),
	}
	for i, r := range data.Table.Rows {
		vals := make([]float64, len(idx))
		for j, c := range idx {
			vals[j] = r.Values[c]
		}
		t.Rows[i] = ClusterRow{
			Keys:    append([]string(nil), r.Keys...),
			Label:   data.View.Label(r.Keys),
			Values:  vals,
			Cluster: labels[i],
		}
	}
	return t, nil
}

// Key returns the index of a key column, or -1.
func (t *ClusterTable) Key(name string) int {
	for i, k := range t.KeyColumns {
		if k == name {
			return i
		}
	}
	return -1
}

// Col returns the index of a value column, or -1.
func (t *ClusterTable) Col(name string) int {
	for i, c := range t.ValueColumns {
		if c == name {
			return i
		}
	}
	return -1
}

// WriteCSV writes the table with its header.
func (t *ClusterTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(t.KeyColumns)+len(t.ValueColumns)+2)
	header = append(header, t.KeyColumns...)
	header = append(header, t.LabelColumn)
	header = append(header, t.ValueColumns...)
	header = append(header, ClusterColumn)
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for _, r := range t.Rows {
		n := copy(rec, r.Keys)
		rec[n] = r.Label
		n++
		for _, v := range r.Values {
			rec[n] = strconv.FormatFloat(v, 'g', -1, 64)
			n++
		}
		rec[n] = strconv.Itoa(r.Cluster)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadClusterTable parses a table written by WriteCSV. Columns before
// labelColumn are keys; columns after it up to Cluster are values.
func ReadClusterTable(r io.Reader, labelColumn string) (*ClusterTable, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty cluster table")
	}
	if err != nil {
		return nil, err
	}
	if len(header) < 2 || header[len(header)-1] != ClusterColumn {
		return nil, fmt.Errorf("last column must be %s", ClusterColumn)
	}
	labelAt := -1
	for i, h := range header {
		if h == labelColumn {
			labelAt = i
			break
		}
	}
	if labelAt < 0 {
		return nil, fmt.Errorf("label column %q not in header", labelColumn)
	}

	t := &ClusterTable{
		KeyColumns:   append([]string(nil), header[:labelAt]...),
		LabelColumn:  labelColumn,
		ValueColumns: append([]string(nil), header[labelAt+1:len(header)-1]...),
	}
	nKeys, nVals := labelAt, len(header)-labelAt-2

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := ClusterRow{
			Keys:   append([]string(nil), rec[:nKeys]...),
			Label:  rec[labelAt],
			Values: make([]float64, nVals),
		}
		for j := 0; j < nVals; j++ {
			v, err := strconv.ParseFloat(rec[labelAt+1+j], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, t.ValueColumns[j], err)
			}
			row.Values[j] = v
		}
		if row.Cluster, err = strconv.Atoi(rec[len(rec)-1]); err != nil {
			return nil, fmt.Errorf("line %d: cluster: %w", line, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
