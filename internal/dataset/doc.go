// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package dataset loads retail transactions and derives the per-row fields
every downstream consumer relies on.

# Columns

The input carries a fixed column set, matched by header name:

	CodigoStock, Descripcion_Ingles, Descripcion_Español, Categoria,
	Cantidad, PrecioUnitario, IDCliente, NumeroFactura, Fecha, Hora_24h

Fecha is day/month/year. NumeroFactura and Hora_24h are optional.

# Derived fields

Derive computes Revenue = Quantity * UnitPrice, the calendar Month (1-12) and
the Weekday (0 = Monday). A row whose date cannot be parsed keeps HasDate
false and reports zero for both calendar fields; it is never dropped.

# Sources

LoadCSV streams a CSV file and parses fixed-size batches concurrently with an
errgroup, keeping input order. LoadDuckDB reads the same columns from a table
in a DuckDB database. Both recover malformed values with neutral defaults and
report what they repaired in LoadStats.
*/
package dataset
