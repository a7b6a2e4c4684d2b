// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package features

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/retailscope/internal/dataset"
)

func tx(code, en, client, invoice, category string, qty, price float64, date string) dataset.Transaction {
	t := dataset.Transaction{
		ProductCode:   code,
		DescriptionEN: en,
		DescriptionES: en + " ES",
		Category:      category,
		Quantity:      qty,
		UnitPrice:     price,
		ClientID:      client,
		InvoiceID:     invoice,
	}
	t.Date, t.HasDate = dataset.ParseDate(date)
	dataset.DeriveRow(&t)
	return t
}

func TestEncoderSortedCodes(t *testing.T) {
	enc := NewEncoder("Categoria").Fit([]string{"Hogar", "Bebidas", "Hogar", "Lacteos"})

	want := []string{"Bebidas", "Hogar", "Lacteos"}
	got := enc.Classes()
	if len(got) != len(want) {
		t.Fatalf("Classes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Classes()[%d] = %q, want %q", i, got[i], want[i])
		}
		if code := enc.Encode(want[i]); code != i {
			t.Errorf("Encode(%q) = %d, want %d", want[i], code, i)
		}
	}

	if code := enc.Encode("Juguetes"); code != SentinelCode {
		t.Errorf("Encode(unseen) = %d, want %d", code, SentinelCode)
	}
	if _, ok := enc.Lookup("Juguetes"); ok {
		t.Error("Lookup(unseen) reported ok")
	}
	if label, ok := enc.Decode(2); !ok || label != "Lacteos" {
		t.Errorf("Decode(2) = %q, %v", label, ok)
	}
	if _, ok := enc.Decode(3); ok {
		t.Error("Decode(out of range) reported ok")
	}
}

func TestEncoderDeterministic(t *testing.T) {
	a := NewEncoder("x").Fit([]string{"c", "a", "b"})
	b := NewEncoder("x").Fit([]string{"b", "b", "a", "c"})
	for _, l := range []string{"a", "b", "c"} {
		if a.Encode(l) != b.Encode(l) {
			t.Errorf("Encode(%q) differs between fits", l)
		}
	}
}

func TestEncoderGobRoundTrip(t *testing.T) {
	enc := NewEncoder("Producto").Fit([]string{"WHITE MUG", "CANDLE"})

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(enc); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var back Encoder
	if err := gob.NewDecoder(&buf).Decode(&back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Name() != "Producto" || back.Encode("WHITE MUG") != 1 {
		t.Errorf("decoded encoder = %q %v", back.Name(), back.Classes())
	}
}

func TestGroupByStats(t *testing.T) {
	rows := []dataset.Transaction{
		tx("A", "Mug", "1", "100", "Hogar", 2, 3, "01/12/2010"),
		tx("A", "Mug", "2", "101", "Hogar", 4, 3, "03/12/2010"),
		tx("B", "Tea", "1", "100", "Bebidas", 1, 5, "01/12/2010"),
	}
	table, err := GroupBy(rows, []Key{KeyProductCode}, []Agg{
		{ColRevenue, StatSum, "rev"},
		{ColQuantity, StatMean, "qty_mean"},
		{ColQuantity, StatStd, "qty_std"},
		{ColQuantity, StatMax, "qty_max"},
		{ColClientID, StatNUnique, "clients"},
		{ColRevenue, StatCount, "n"},
	})
	if err != nil {
		t.Fatalf("GroupBy() error = %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(table.Rows))
	}

	if table.Rows[0].Keys[0] != "A" {
		t.Fatalf("first group = %v, want A", table.Rows[0].Keys)
	}
	checks := map[string]float64{
		"rev":      18,
		"qty_mean": 3,
		"qty_std":  math.Sqrt2,
		"qty_max":  4,
		"clients":  2,
		"n":        2,
	}
	for col, want := range checks {
		if got := table.Value(0, col); math.Abs(got-want) > 1e-9 {
			t.Errorf("A.%s = %v, want %v", col, got, want)
		}
	}

	if got := table.Value(1, "qty_std"); !math.IsNaN(got) {
		t.Errorf("single-row std = %v, want NaN", got)
	}
}

func TestGroupByWithoutKeys(t *testing.T) {
	rows := []dataset.Transaction{
		tx("A", "Mug", "1", "100", "Hogar", 2, 3, "01/12/2010"),
		tx("B", "Tea", "2", "101", "Bebidas", 1, 5, ""),
	}
	table, err := GroupBy(rows, nil, []Agg{
		{ColRevenue, StatSum, "rev"},
		{ColDay, StatCount, "dated"},
	})
	if err != nil {
		t.Fatalf("GroupBy() error = %v", err)
	}
	if len(table.Rows) != 1 || table.Value(0, "rev") != 11 || table.Value(0, "dated") != 1 {
		t.Errorf("table = %+v", table.Rows)
	}
}

func TestGroupByRejectsBadAggregations(t *testing.T) {
	tests := []struct {
		name string
		aggs []Agg
	}{
		{"mean of text column", []Agg{{ColCategory, StatMean, "x"}}},
		{"duplicate output", []Agg{{ColRevenue, StatSum, "x"}, {ColQuantity, StatSum, "x"}}},
		{"empty output", []Agg{{ColRevenue, StatSum, ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GroupBy(nil, nil, tt.aggs); !errors.Is(err, ErrBadAggregation) {
				t.Errorf("GroupBy() error = %v, want ErrBadAggregation", err)
			}
		})
	}
}

func TestBuildViews(t *testing.T) {
	rows := []dataset.Transaction{
		tx("A", "Mug", "1", "100", "Hogar", 2, 3, "01/12/2010"),
		tx("A", "Mug", "2", "101", "Hogar", 4, 3, "11/12/2010"),
		tx("B", "Tea", "1", "102", "Bebidas", 0, 0, "05/12/2010"),
	}

	for _, name := range ViewNames {
		t.Run(name, func(t *testing.T) {
			v, err := LookupView(name)
			if err != nil {
				t.Fatalf("LookupView() error = %v", err)
			}
			data, err := Build(v, rows)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if len(data.Matrix) != len(data.Table.Rows) {
				t.Fatalf("matrix rows = %d, table rows = %d", len(data.Matrix), len(data.Table.Rows))
			}
			for _, row := range data.Matrix {
				if len(row) != len(v.Features) {
					t.Fatalf("row width = %d, want %d", len(row), len(v.Features))
				}
			}
			if err := AssertFinite(data.Matrix); err != nil {
				t.Errorf("AssertFinite() error = %v", err)
			}
		})
	}
}

func TestProfitabilityView(t *testing.T) {
	rows := []dataset.Transaction{
		tx("A", "Mug", "1", "100", "Hogar", 2, 3, "01/12/2010"),
		tx("B", "Free", "1", "101", "Hogar", 0, 0, "01/12/2010"),
	}
	v, _ := LookupView(ViewProfitability)
	data, err := Build(v, rows)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Single-row groups have an undefined std; both become 0.
	if data.Sanitized < 2 {
		t.Errorf("Sanitized = %d, want at least 2", data.Sanitized)
	}
	if got := data.Table.Value(0, FeatROI); got != 1 {
		t.Errorf("ROI(A) = %v, want 1", got)
	}
	if got := data.Table.Value(1, FeatROI); got != 0 {
		t.Errorf("ROI with zero denominator = %v, want 0", got)
	}
	if got := data.Table.Value(0, FeatProfitStability); got != 0 {
		t.Errorf("stability of single row = %v, want 0", got)
	}
}

func TestClientsView(t *testing.T) {
	rows := []dataset.Transaction{
		tx("A", "Mug", "7", "100", "Hogar", 2, 3, "01/12/2010"),
		tx("B", "Tea", "7", "101", "Bebidas", 1, 4, "11/12/2010"),
		tx("A", "Mug", "8", "102", "Hogar", 1, 3, "05/12/2010"),
		tx("A", "Mug", "9", "103", "Hogar", 1, 3, ""),
	}
	v, _ := LookupView(ViewClients)
	data, err := Build(v, rows)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	byClient := map[string]int{}
	for i, r := range data.Table.Rows {
		byClient[r.Keys[0]] = i
	}

	c7 := byClient["7"]
	if got := data.Table.Value(c7, FeatActiveDays); got != 10 {
		t.Errorf("Dias_Activo(7) = %v, want 10", got)
	}
	if got := data.Table.Value(c7, FeatPurchaseFrequency); math.Abs(got-2.0/11) > 1e-12 {
		t.Errorf("Frecuencia_Compra(7) = %v, want %v", got, 2.0/11)
	}
	if got := data.Table.Value(c7, FeatTicketMean); got != 5 {
		t.Errorf("Valor_Promedio_Transaccion(7) = %v, want 5", got)
	}
	if got := data.Table.Value(c7, FeatUniqueCategories); got != 2 {
		t.Errorf("Categorias_Unicas(7) = %v, want 2", got)
	}

	c8 := byClient["8"]
	if got := data.Table.Value(c8, FeatPurchaseFrequency); got != 1 {
		t.Errorf("Frecuencia_Compra(8) = %v, want 1", got)
	}
	if got := data.Table.Value(byClient["9"], FeatActiveDays); got != 0 {
		t.Errorf("Dias_Activo without dates = %v, want 0", got)
	}

	cols := PersistedColumns(data.Table)
	for _, c := range cols {
		if c == colFirstDay || c == colLastDay {
			t.Errorf("PersistedColumns() includes %q", c)
		}
	}
}

func TestClientsViewSkipsAnonymousRows(t *testing.T) {
	rows := []dataset.Transaction{
		tx("A", "Mug", "100", "1", "Hogar", 2, 3, "01/12/2010"),
		tx("B", "Tea", "", "2", "Bebidas", 50, 9, "02/12/2010"),
		tx("A", "Mug", "  ", "3", "Hogar", 40, 3, "03/12/2010"),
	}
	v, _ := LookupView(ViewClients)
	data, err := Build(v, rows)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(data.Table.Rows) != 1 || data.Table.Rows[0].Keys[0] != "100" {
		t.Fatalf("client rows = %+v, want only client 100", data.Table.Rows)
	}
	if got := data.Table.Value(0, FeatRevenueTotal); got != 6 {
		t.Errorf("Ingresos_Total(100) = %v, want 6", got)
	}
	if len(data.Matrix) != 1 {
		t.Errorf("matrix rows = %d, want 1", len(data.Matrix))
	}

	// Product views keep anonymous purchases.
	pv, _ := LookupView(ViewProducts)
	pdata, err := Build(pv, rows)
	if err != nil {
		t.Fatalf("Build(productos) error = %v", err)
	}
	if len(pdata.Table.Rows) != 2 {
		t.Errorf("product rows = %d, want 2", len(pdata.Table.Rows))
	}
}

func TestLookupViewUnknown(t *testing.T) {
	if _, err := LookupView("valor"); !errors.Is(err, ErrUnknownView) {
		t.Errorf("LookupView() error = %v, want ErrUnknownView", err)
	}
}

func TestSafeDiv(t *testing.T) {
	tests := []struct {
		num, den, want float64
	}{
		{10, 2, 5},
		{10, 0, 0},
		{math.Inf(1), 1, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := SafeDiv(tt.num, tt.den); got != tt.want {
			t.Errorf("SafeDiv(%v, %v) = %v, want %v", tt.num, tt.den, got, tt.want)
		}
	}
}

func TestSanitizeAndAssertFinite(t *testing.T) {
	table := NewTable([]string{"k"}, []string{"a", "b"})
	table.Rows = []Row{
		{Keys: []string{"x"}, Values: []float64{math.NaN(), 1}},
		{Keys: []string{"y"}, Values: []float64{2, math.Inf(-1)}},
	}
	if err := AssertFinite([][]float64{{math.NaN()}}); !errors.Is(err, ErrNonFiniteMatrix) {
		t.Errorf("AssertFinite() error = %v", err)
	}
	if n := Sanitize(table); n != 2 {
		t.Errorf("Sanitize() = %d, want 2", n)
	}
	m, err := Matrix(table, []string{"b", "a"})
	if err != nil {
		t.Fatalf("Matrix() error = %v", err)
	}
	if m[0][0] != 1 || m[0][1] != 0 || m[1][0] != 0 || m[1][1] != 2 {
		t.Errorf("Matrix() = %v", m)
	}
	if _, err := Matrix(table, []string{"missing"}); err == nil {
		t.Error("Matrix() with unknown column should fail")
	}
}

func TestColDayUsesCalendarDays(t *testing.T) {
	r := tx("A", "Mug", "1", "1", "X", 1, 1, "02/01/1970")
	v, ok := ColDay.number(&r)
	if !ok || v != 1 {
		t.Errorf("ColDay(1970-01-02) = %v, %v; want 1, true", v, ok)
	}
}
