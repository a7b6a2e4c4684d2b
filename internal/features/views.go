// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/retailscope/internal/dataset"
)

// Cluster view names.
const (
	ViewProducts      = "productos"
	ViewProfitability = "rentabilidad"
	ViewQuantity      = "cantidad"
	ViewClients       = "clientes"
)

// Entity is what a view's rows describe.
type Entity int

// Entities.
const (
	EntityProduct Entity = iota
	EntityClient
)

// Label columns added to persisted cluster tables.
const (
	LabelProduct = "Producto"
	LabelClient  = "Cliente"
)

// Aggregated column names shared across views and queries.
const (
	FeatRevenueTotal      = "Ingresos_Total"
	FeatRevenueMean       = "Ingresos_Promedio"
	FeatRevenueStd        = "Ingresos_Std"
	FeatQuantityTotal     = "Cantidad_Total"
	FeatQuantityMean      = "Cantidad_Promedio"
	FeatQuantityStd       = "Cantidad_Std"
	FeatQuantityMax       = "Cantidad_Max"
	FeatPriceMean         = "Precio_Promedio"
	FeatUniqueClients     = "Clientes_Unicos"
	FeatUniqueProducts    = "Productos_Unicos"
	FeatUniqueCategories  = "Categorias_Unicas"
	FeatTransactions      = "Num_Transacciones"
	FeatProfitTotal       = "Rentabilidad_Total"
	FeatProfitMean        = "Rentabilidad_Promedio"
	FeatProfitStability   = "Rentabilidad_Estabilidad"
	FeatROI               = "ROI"
	FeatActiveDays        = "Dias_Activo"
	FeatPurchaseFrequency = "Frecuencia_Compra"
	FeatTicketMean        = "Valor_Promedio_Transaccion"

	// Intermediate columns are prefixed with an underscore and are not
	// persisted.
	colFirstDay = "_primer_dia"
	colLastDay  = "_ultimo_dia"
)

// ErrUnknownView is returned by LookupView for names outside the registry.
var ErrUnknownView = errors.New("unknown cluster view")

// Derived computes a column from the aggregated values of a row.
type Derived struct {
	Name string
	Fn   func(r RowView) float64
}

// View describes how transactions are summarized into one entity per row
// before clustering.
type View struct {
	Name     string
	Entity   Entity
	Keys     []Key
	Aggs     []Agg
	Derived  []Derived
	Features []string

	// Filter, when set, drops rows that do not belong to any entity.
	Filter func(tx *dataset.Transaction) bool
}

// LabelColumn returns the display column written next to the keys.
func (v *View) LabelColumn() string {
	if v.Entity == EntityClient {
		return LabelClient
	}
	return LabelProduct
}

// Label returns the display label of a row built from this view.
func (v *View) Label(keys []string) string {
	if v.Entity == EntityClient {
		return keys[0]
	}
	// Products are labelled by their English description.
	return keys[1]
}

var productKeys = []Key{KeyProductCode, KeyDescriptionEN, KeyDescriptionES, KeyCategory}

var views = map[string]View{
	ViewProducts: {
		Name:   ViewProducts,
		Entity: EntityProduct,
		Keys:   productKeys,
		Aggs: []Agg{
			{ColRevenue, StatSum, FeatRevenueTotal},
			{ColRevenue, StatMean, FeatRevenueMean},
			{ColQuantity, StatSum, FeatQuantityTotal},
			{ColQuantity, StatMean, FeatQuantityMean},
			{ColUnitPrice, StatMean, FeatPriceMean},
			{ColClientID, StatNUnique, FeatUniqueClients},
		},
		Features: []string{
			FeatRevenueTotal, FeatRevenueMean, FeatQuantityTotal,
			FeatQuantityMean, FeatPriceMean, FeatUniqueClients,
		},
	},
	ViewProfitability: {
		Name:   ViewProfitability,
		Entity: EntityProduct,
		Keys:   productKeys,
		Aggs: []Agg{
			{ColRevenue, StatSum, FeatRevenueTotal},
			{ColRevenue, StatMean, FeatRevenueMean},
			{ColRevenue, StatStd, FeatRevenueStd},
			{ColQuantity, StatSum, FeatQuantityTotal},
			{ColUnitPrice, StatMean, FeatPriceMean},
		},
		Derived: []Derived{
			{FeatProfitTotal, func(r RowView) float64 { return r.Get(FeatRevenueTotal) }},
			{FeatProfitMean, func(r RowView) float64 { return r.Get(FeatRevenueMean) }},
			{FeatProfitStability, func(r RowView) float64 { return finiteOrZero(r.Get(FeatRevenueStd)) }},
			{FeatROI, func(r RowView) float64 {
				return SafeDiv(r.Get(FeatRevenueTotal), r.Get(FeatQuantityTotal)*r.Get(FeatPriceMean))
			}},
		},
		Features: []string{FeatProfitTotal, FeatProfitMean, FeatProfitStability, FeatROI},
	},
	ViewQuantity: {
		Name:   ViewQuantity,
		Entity: EntityProduct,
		Keys:   productKeys,
		Aggs: []Agg{
			{ColQuantity, StatSum, FeatQuantityTotal},
			{ColQuantity, StatMean, FeatQuantityMean},
			{ColQuantity, StatStd, FeatQuantityStd},
			{ColQuantity, StatMax, FeatQuantityMax},
			{ColRevenue, StatSum, FeatRevenueTotal},
			{ColUnitPrice, StatMean, FeatPriceMean},
		},
		Features: []string{FeatQuantityTotal, FeatQuantityMean, FeatQuantityStd, FeatQuantityMax},
	},
	ViewClients: {
		Name:   ViewClients,
		Entity: EntityClient,
		Keys:   []Key{KeyClientID},
		Filter: hasClient,
		Aggs: []Agg{
			{ColRevenue, StatSum, FeatRevenueTotal},
			{ColRevenue, StatMean, FeatRevenueMean},
			{ColRevenue, StatCount, FeatTransactions},
			{ColQuantity, StatSum, FeatQuantityTotal},
			{ColQuantity, StatMean, FeatQuantityMean},
			{ColUnitPrice, StatMean, FeatPriceMean},
			{ColProductCode, StatNUnique, FeatUniqueProducts},
			{ColCategory, StatNUnique, FeatUniqueCategories},
			{ColDay, StatMin, colFirstDay},
			{ColDay, StatMax, colLastDay},
		},
		Derived: []Derived{
			{FeatActiveDays, func(r RowView) float64 {
				first, last := r.Get(colFirstDay), r.Get(colLastDay)
				if math.IsNaN(first) || math.IsNaN(last) {
					return 0
				}
				return last - first
			}},
			{FeatPurchaseFrequency, func(r RowView) float64 {
				n, days := r.Get(FeatTransactions), r.Get(FeatActiveDays)
				if days > 0 {
					return n / (days + 1)
				}
				return n
			}},
			{FeatTicketMean, func(r RowView) float64 {
				return SafeDiv(r.Get(FeatRevenueTotal), r.Get(FeatTransactions))
			}},
		},
		Features: []string{
			FeatRevenueTotal, FeatTransactions, FeatQuantityTotal,
			FeatUniqueProducts, FeatPurchaseFrequency, FeatTicketMean,
		},
	},
}

// ViewNames lists the registered views in a stable order.
var ViewNames = []string{ViewProducts, ViewProfitability, ViewQuantity, ViewClients}

// LookupView returns the registered view with the given name.
func LookupView(name string) (*View, error) {
	v, ok := views[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	return &v, nil
}

// ViewData is a view evaluated over a dataset.
type ViewData struct {
	View      *View
	Table     *Table
	Matrix    [][]float64
	Sanitized int
}

// Build aggregates rows through v, computes derived columns, replaces
// non-finite values with 0 and extracts the feature matrix.
func Build(v *View, rows []dataset.Transaction) (*ViewData, error) {
	if v.Filter != nil {
		kept := make([]dataset.Transaction, 0, len(rows))
		for i := range rows {
			if v.Filter(&rows[i]) {
				kept = append(kept, rows[i])
			}
		}
		rows = kept
	}
	t, err := GroupBy(rows, v.Keys, v.Aggs)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", v.Name, err)
	}
	for _, d := range v.Derived {
		t.AddColumn(d.Name, d.Fn)
	}
	sanitized := Sanitize(t)

	m, err := Matrix(t, v.Features)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", v.Name, err)
	}
	if err := AssertFinite(m); err != nil {
		return nil, fmt.Errorf("view %s: %w", v.Name, err)
	}
	return &ViewData{View: v, Table: t, Matrix: m, Sanitized: sanitized}, nil
}

// PersistedColumns returns the value columns written to cluster tables.
func PersistedColumns(t *Table) []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if len(c) > 0 && c[0] == '_' {
			continue
		}
		out = append(out, c)
	}
	return out
}

// hasClient rejects anonymous transactions.
func hasClient(tx *dataset.Transaction) bool {
	return dataset.NormalizeID(tx.ClientID) != ""
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
