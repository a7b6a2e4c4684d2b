// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package features

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tomtom215/retailscope/internal/dataset"
)

// Key is a grouping key drawn from a transaction.
type Key int

// Grouping keys.
const (
	KeyProductCode Key = iota
	KeyDescriptionEN
	KeyDescriptionES
	KeyCategory
	KeyClientID
)

var keyNames = [...]string{
	KeyProductCode:   dataset.ColProductCode,
	KeyDescriptionEN: dataset.ColDescriptionEN,
	KeyDescriptionES: dataset.ColDescriptionES,
	KeyCategory:      dataset.ColCategory,
	KeyClientID:      dataset.ColClientID,
}

func (k Key) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return "Key(" + strconv.Itoa(int(k)) + ")"
}

func (k Key) value(tx *dataset.Transaction) string {
	switch k {
	case KeyProductCode:
		return tx.ProductCode
	case KeyDescriptionEN:
		return tx.DescriptionEN
	case KeyDescriptionES:
		return tx.DescriptionES
	case KeyCategory:
		return tx.Category
	case KeyClientID:
		return tx.ClientID
	}
	return ""
}

// Column is a transaction attribute an aggregation reads.
type Column int

// Aggregatable columns. Numeric columns support every Stat; text columns
// only support StatCount and StatNUnique.
const (
	ColQuantity Column = iota
	ColUnitPrice
	ColRevenue
	ColDay // days since the Unix epoch, missing when the row has no date
	ColProductCode
	ColCategory
	ColClientID
	ColInvoiceID
)

func (c Column) numeric() bool { return c <= ColDay }

// number returns the numeric value of c and whether it is present.
func (c Column) number(tx *dataset.Transaction) (float64, bool) {
	switch c {
	case ColQuantity:
		return tx.Quantity, true
	case ColUnitPrice:
		return tx.UnitPrice, true
	case ColRevenue:
		return tx.Revenue, true
	case ColDay:
		if !tx.HasDate {
			return 0, false
		}
		return float64(tx.Date.Unix() / 86400), true
	}
	return 0, false
}

// text returns the value of c used for distinct counting.
func (c Column) text(tx *dataset.Transaction) (string, bool) {
	switch c {
	case ColProductCode:
		return tx.ProductCode, true
	case ColCategory:
		return tx.Category, true
	case ColClientID:
		return tx.ClientID, true
	case ColInvoiceID:
		return tx.InvoiceID, true
	}
	v, ok := c.number(tx)
	if !ok {
		return "", false
	}
	return strconv.FormatFloat(v, 'g', -1, 64), true
}

// Stat is an aggregation function.
type Stat int

// Supported statistics. StatStd is the sample standard deviation and is
// undefined (NaN) for groups with fewer than two values.
const (
	StatSum Stat = iota
	StatMean
	StatStd
	StatMin
	StatMax
	StatCount
	StatNUnique
)

// Agg names one output column computed from Column with Stat.
type Agg struct {
	Column Column
	Stat   Stat
	As     string
}

// ErrBadAggregation is returned for aggregations a column cannot support.
var ErrBadAggregation = errors.New("invalid aggregation")

// Row is one group of an aggregated table.
type Row struct {
	Keys   []string
	Values []float64
}

// Table is the result of GroupBy. Rows keep the order in which their group
// was first seen.
type Table struct {
	KeyNames []string
	Columns  []string
	Rows     []Row

	colIndex map[string]int
}

// NewTable returns an empty table with the given layout.
func NewTable(keyNames, columns []string) *Table {
	t := &Table{KeyNames: keyNames, Columns: columns}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.colIndex = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.colIndex[c] = i
	}
}

// Col returns the index of the named value column, or -1.
func (t *Table) Col(name string) int {
	if t.colIndex == nil {
		t.reindex()
	}
	if i, ok := t.colIndex[name]; ok {
		return i
	}
	return -1
}

// Key returns the index of the named key column, or -1.
func (t *Table) Key(name string) int {
	for i, k := range t.KeyNames {
		if k == name {
			return i
		}
	}
	return -1
}

// Value returns the named value of row i, or NaN when the column is unknown.
func (t *Table) Value(i int, name string) float64 {
	c := t.Col(name)
	if c < 0 {
		return math.NaN()
	}
	return t.Rows[i].Values[c]
}

// AddColumn appends a column computed from each row. fn may read columns
// added earlier.
func (t *Table) AddColumn(name string, fn func(r RowView) float64) {
	t.Columns = append(t.Columns, name)
	t.reindex()
	for i := range t.Rows {
		v := fn(RowView{t: t, i: i})
		t.Rows[i].Values = append(t.Rows[i].Values, v)
	}
}

// RowView gives named access to one row of a table.
type RowView struct {
	t *Table
	i int
}

// Get returns the named value, NaN when absent.
func (r RowView) Get(name string) float64 { return r.t.Value(r.i, name) }

type accumulator struct {
	n        int
	sum      float64
	mean, m2 float64
	min, max float64
	distinct map[string]struct{}
}

func (a *accumulator) add(v float64) {
	if a.n == 0 {
		a.min, a.max = v, v
	}
	a.n++
	a.sum += v
	d := v - a.mean
	a.mean += d / float64(a.n)
	a.m2 += d * (v - a.mean)
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
}

func (a *accumulator) result(s Stat) float64 {
	switch s {
	case StatSum:
		return a.sum
	case StatCount:
		return float64(a.n)
	case StatNUnique:
		return float64(len(a.distinct))
	}
	if a.n == 0 {
		return math.NaN()
	}
	switch s {
	case StatMean:
		return a.sum / float64(a.n)
	case StatMin:
		return a.min
	case StatMax:
		return a.max
	case StatStd:
		if a.n < 2 {
			return math.NaN()
		}
		return math.Sqrt(a.m2 / float64(a.n-1))
	}
	return math.NaN()
}

type group struct {
	keys []string
	accs []accumulator
}

func validateAggs(aggs []Agg) error {
	seen := make(map[string]struct{}, len(aggs))
	for _, a := range aggs {
		if a.As == "" {
			return fmt.Errorf("%w: empty output name", ErrBadAggregation)
		}
		if _, dup := seen[a.As]; dup {
			return fmt.Errorf("%w: duplicate output %q", ErrBadAggregation, a.As)
		}
		seen[a.As] = struct{}{}
		if !a.Column.numeric() && a.Stat != StatCount && a.Stat != StatNUnique {
			return fmt.Errorf("%w: %s needs a numeric column", ErrBadAggregation, a.As)
		}
	}
	return nil
}

// GroupBy groups rows by keys and evaluates aggs per group. With no keys the
// whole input forms a single group.
func GroupBy(rows []dataset.Transaction, keys []Key, aggs []Agg) (*Table, error) {
	if err := validateAggs(aggs); err != nil {
		return nil, err
	}

	keyNames := make([]string, len(keys))
	for i, k := range keys {
		keyNames[i] = k.String()
	}
	columns := make([]string, len(aggs))
	for i, a := range aggs {
		columns[i] = a.As
	}

	index := make(map[string]int)
	var groups []*group
	var sb strings.Builder

	for i := range rows {
		tx := &rows[i]

		sb.Reset()
		for j, k := range keys {
			if j > 0 {
				sb.WriteByte(0x1f)
			}
			sb.WriteString(k.value(tx))
		}
		id := sb.String()

		gi, ok := index[id]
		if !ok {
			g := &group{keys: make([]string, len(keys)), accs: make([]accumulator, len(aggs))}
			for j, k := range keys {
				g.keys[j] = k.value(tx)
			}
			gi = len(groups)
			index[id] = gi
			groups = append(groups, g)
		}
		g := groups[gi]

		for j, a := range aggs {
			acc := &g.accs[j]
			if a.Stat == StatNUnique {
				v, ok := a.Column.text(tx)
				if !ok {
					continue
				}
				if acc.distinct == nil {
					acc.distinct = make(map[string]struct{})
				}
				acc.distinct[v] = struct{}{}
				continue
			}
			if !a.Column.numeric() {
				if _, ok := a.Column.text(tx); ok {
					acc.n++
				}
				continue
			}
			if v, ok := a.Column.number(tx); ok {
				acc.add(v)
			}
		}
	}

	t := NewTable(keyNames, columns)
	t.Rows = make([]Row, len(groups))
	for i, g := range groups {
		vals := make([]float64, len(aggs))
		for j, a := range aggs {
			vals[j] = g.accs[j].result(a.Stat)
		}
		t.Rows[i] = Row{Keys: g.keys, Values: vals}
	}
	return t, nil
}

// SafeDiv returns num/den, or 0 when den is zero or the quotient is not
// finite.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}
