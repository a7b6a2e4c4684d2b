// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package dataset

import (
	"testing"
	"time"
)

func TestDeriveRevenueIdentity(t *testing.T) {
	rows := []Transaction{
		{Quantity: 10, UnitPrice: 2},
		{Quantity: 5, UnitPrice: 10},
		{Quantity: 0, UnitPrice: 3.75},
		{Quantity: 3, UnitPrice: 0.1},
		{Quantity: -2, UnitPrice: 4.5},
	}
	Derive(rows)
	for i, r := range rows {
		if r.Revenue != r.Quantity*r.UnitPrice {
			t.Errorf("row %d: Revenue = %v, want %v", i, r.Revenue, r.Quantity*r.UnitPrice)
		}
	}
}

func TestDeriveCalendarFields(t *testing.T) {
	tests := []struct {
		name        string
		date        string
		wantHasDate bool
		wantMonth   int
		wantWeekday int
	}{
		{"monday", "05/12/2011", true, 12, 0},
		{"sunday", "04/12/2011", true, 12, 6},
		{"unpadded", "1/2/2011", true, 2, 1},
		{"month-first is invalid", "12/31/2011", false, 0, 0},
		{"iso is invalid", "2011-12-05", false, 0, 0},
		{"empty", "", false, 0, 0},
		{"garbage", "ayer", false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := Transaction{Quantity: 1, UnitPrice: 1}
			tx.Date, tx.HasDate = ParseDate(tt.date)
			DeriveRow(&tx)

			if tx.HasDate != tt.wantHasDate {
				t.Fatalf("HasDate = %v, want %v", tx.HasDate, tt.wantHasDate)
			}
			if tx.Month != tt.wantMonth {
				t.Errorf("Month = %d, want %d", tx.Month, tt.wantMonth)
			}
			if tx.Weekday != tt.wantWeekday {
				t.Errorf("Weekday = %d, want %d", tx.Weekday, tt.wantWeekday)
			}
		})
	}
}

func TestMondayWeekday(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday
	for i := 0; i < 7; i++ {
		if got := MondayWeekday(start.AddDate(0, 0, i)); got != i {
			t.Errorf("MondayWeekday(+%d days) = %d, want %d", i, got, i)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"12", 12, true},
		{" 2.55 ", 2.55, true},
		{"2,55", 2.55, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-Infinity", 0, false},
		{"1e400", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseNumber(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("parseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseHour(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"14", 14, true},
		{"9.0", 9, true},
		{"08:45", 8, true},
		{"24", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseHour(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("parseHour(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalizeID(t *testing.T) {
	tests := map[string]string{
		"17850":    "17850",
		"17850.0":  "17850",
		" 12346 ":  "12346",
		"C-100.0":  "C-100.0",
		"536365":   "536365",
		"":         "",
		"3.5":      "3.5",
		"12346.00": "12346.00",
	}
	for in, want := range tests {
		if got := NormalizeID(in); got != want {
			t.Errorf("NormalizeID(%q) = %q, want %q", in, got, want)
		}
	}
}
