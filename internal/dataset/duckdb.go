// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// LoadDuckDB opens the DuckDB database at path read-only and loads table.
func LoadDuckDB(ctx context.Context, path, table string) ([]Transaction, LoadStats, error) {
	db, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, LoadStats{}, fmt.Errorf("ping duckdb: %w", err)
	}
	return QueryDuckDB(ctx, db, table)
}

// QueryDuckDB loads transactions from table over an existing connection.
// DATE columns are rendered as day/month/year so both typed and text dates
// go through ParseDate.
func QueryDuckDB(ctx context.Context, db *sql.DB, table string) ([]Transaction, LoadStats, error) {
	if !identPattern.MatchString(table) {
		return nil, LoadStats{}, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}

	hasInvoice, hasHour, err := optionalColumns(ctx, db, table)
	if err != nil {
		return nil, LoadStats{}, err
	}

	invoiceExpr, hourExpr := "NULL", "NULL"
	if hasInvoice {
		invoiceExpr = text(ColInvoiceID)
	}
	if hasHour {
		hourExpr = text(ColHour)
	}

	query := fmt.Sprintf(`SELECT %s, %s, %s, %s,
		TRY_CAST(%s AS DOUBLE), TRY_CAST(%s AS DOUBLE),
		%s, %s,
		COALESCE(strftime(TRY_CAST(%s AS DATE), '%%d/%%m/%%Y'), %s),
		%s
	FROM %s`,
		text(ColProductCode), text(ColDescriptionEN), text(ColDescriptionES), text(ColCategory),
		quote(ColQuantity), quote(ColUnitPrice),
		text(ColClientID), invoiceExpr,
		quote(ColDate), text(ColDate),
		hourExpr,
		table,
	)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var (
		out   []Transaction
		stats LoadStats
	)
	for rows.Next() {
		var (
			code, descEN, descES, category sql.NullString
			qty, price                     sql.NullFloat64
			client, invoice, date, hour    sql.NullString
		)
		if err := rows.Scan(&code, &descEN, &descES, &category, &qty, &price,
			&client, &invoice, &date, &hour); err != nil {
			return nil, LoadStats{}, fmt.Errorf("scan %s: %w", table, err)
		}

		tx := Transaction{
			ProductCode:   strings.TrimSpace(code.String),
			DescriptionEN: strings.TrimSpace(descEN.String),
			DescriptionES: strings.TrimSpace(descES.String),
			Category:      strings.TrimSpace(category.String),
			ClientID:      NormalizeID(client.String),
			InvoiceID:     NormalizeID(invoice.String),
		}
		if qty.Valid && finite(qty.Float64) {
			tx.Quantity = qty.Float64
		} else {
			stats.BadNumbers++
		}
		if price.Valid && finite(price.Float64) {
			tx.UnitPrice = price.Float64
		} else {
			stats.BadNumbers++
		}
		if hasHour {
			var ok bool
			if tx.Hour, ok = parseHour(hour.String); !ok {
				stats.BadNumbers++
			}
		}
		if tx.Date, tx.HasDate = ParseDate(date.String); !tx.HasDate {
			stats.BadDates++
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, LoadStats{}, fmt.Errorf("iterate %s: %w", table, err)
	}

	stats.Rows = len(out)
	return out, stats, nil
}

// optionalColumns reports whether the invoice and hour columns exist and
// fails when a required column is absent.
func optionalColumns(ctx context.Context, db *sql.DB, table string) (hasInvoice, hasHour bool, err error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", table))
	if err != nil {
		return false, false, fmt.Errorf("describe %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return false, false, fmt.Errorf("describe %s: %w", table, err)
	}
	if _, err := indexColumns(cols); err != nil {
		return false, false, err
	}
	for _, c := range cols {
		switch c {
		case ColInvoiceID:
			hasInvoice = true
		case ColHour:
			hasHour = true
		}
	}
	return hasInvoice, hasHour, nil
}

func quote(col string) string {
	return `"` + col + `"`
}

func text(col string) string {
	return "CAST(" + quote(col) + " AS VARCHAR)"
}
