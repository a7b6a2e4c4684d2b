// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Column names of the transaction dataset.
const (
	ColProductCode   = "CodigoStock"
	ColDescriptionEN = "Descripcion_Ingles"
	ColDescriptionES = "Descripcion_Español"
	ColCategory      = "Categoria"
	ColQuantity      = "Cantidad"
	ColUnitPrice     = "PrecioUnitario"
	ColClientID      = "IDCliente"
	ColInvoiceID     = "NumeroFactura"
	ColDate          = "Fecha"
	ColHour          = "Hora_24h"
)

// requiredColumns must be present in every source header.
var requiredColumns = []string{
	ColProductCode, ColDescriptionEN, ColDescriptionES, ColCategory,
	ColQuantity, ColUnitPrice, ColClientID, ColDate,
}

// DateLayout is the day/month/year layout of the Fecha column. Single-digit
// days and months are accepted.
const DateLayout = "2/1/2006"

// Transaction is one line item of a sale.
type Transaction struct {
	ProductCode   string
	DescriptionEN string
	DescriptionES string
	Category      string
	Quantity      float64
	UnitPrice     float64
	ClientID      string
	InvoiceID     string
	Date          time.Time
	HasDate       bool
	Hour          int

	// Filled by Derive.
	Revenue float64
	Month   int // 1-12, 0 when the date is missing
	Weekday int // 0 = Monday, 0 when the date is missing
}

// Derive fills Revenue, Month and Weekday in place and returns rows.
func Derive(rows []Transaction) []Transaction {
	for i := range rows {
		DeriveRow(&rows[i])
	}
	return rows
}

// DeriveRow fills the derived fields of a single row.
func DeriveRow(tx *Transaction) {
	tx.Revenue = tx.Quantity * tx.UnitPrice
	if !tx.HasDate {
		tx.Month, tx.Weekday = 0, 0
		return
	}
	tx.Month = int(tx.Date.Month())
	tx.Weekday = MondayWeekday(tx.Date)
}

// MondayWeekday numbers days from Monday = 0 to Sunday = 6.
func MondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ParseDate parses a day/month/year date. The boolean is false for empty or
// malformed input.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseNumber accepts "12.5" and "12,5". Empty, malformed or non-finite input
// (NaN, Inf) yields 0, false.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.IndexByte(s, ',') >= 0 && strings.IndexByte(s, '.') < 0 {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// parseHour accepts "14", "14.0" and "14:35". Out-of-range values yield 0, false.
func parseHour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ':'); i > 0 {
		s = s[:i]
	}
	v, ok := parseNumber(s)
	if !ok || v < 0 || v > 23 {
		return 0, false
	}
	return int(v), true
}

// NormalizeID trims whitespace and a trailing ".0" that spreadsheet exports
// append to integer identifiers.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".0") {
		if _, err := strconv.ParseInt(s[:len(s)-2], 10, 64); err == nil {
			return s[:len(s)-2]
		}
	}
	return s
}
