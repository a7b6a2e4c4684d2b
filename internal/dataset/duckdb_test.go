// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package dataset

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func TestLoadDuckDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ventas.duckdb")

	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	stmts := []string{
		`CREATE TABLE ventas (
			"NumeroFactura" BIGINT,
			"CodigoStock" VARCHAR,
			"Descripcion_Ingles" VARCHAR,
			"Descripcion_Español" VARCHAR,
			"Categoria" VARCHAR,
			"Cantidad" INTEGER,
			"PrecioUnitario" DOUBLE,
			"IDCliente" DOUBLE,
			"Fecha" DATE,
			"Hora_24h" INTEGER
		)`,
		`INSERT INTO ventas VALUES
			(536365, '85123A', 'WHITE HEART', 'CORAZON', 'Hogar', 6, 2.55, 17850, DATE '2010-12-01', 8),
			(536366, '22633', 'HAND WARMER', 'CALENTADOR', 'Hogar', NULL, 1.85, 17850, NULL, 9)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rows, stats, err := LoadDuckDB(context.Background(), path, "ventas")
	if err != nil {
		t.Fatalf("LoadDuckDB() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}

	first := rows[0]
	if first.ClientID != "17850" {
		t.Errorf("ClientID = %q, want 17850", first.ClientID)
	}
	if !first.HasDate || first.Date.Day() != 1 || first.Date.Month() != 12 {
		t.Errorf("Date = %v (HasDate %v), want 2010-12-01", first.Date, first.HasDate)
	}
	if first.InvoiceID != "536365" || first.Hour != 8 || first.Quantity != 6 {
		t.Errorf("first row = %+v", first)
	}
	if rows[1].HasDate || rows[1].Quantity != 0 {
		t.Errorf("second row should carry defaults, got %+v", rows[1])
	}
	if stats.BadDates != 1 || stats.BadNumbers != 1 {
		t.Errorf("stats = %+v, want 1 bad date and 1 bad number", stats)
	}
}

func TestQueryDuckDBRejectsTableInjection(t *testing.T) {
	_, _, err := QueryDuckDB(context.Background(), nil, "ventas; DROP TABLE ventas")
	if !errors.Is(err, ErrInvalidTable) {
		t.Errorf("error = %v, want ErrInvalidTable", err)
	}
}
