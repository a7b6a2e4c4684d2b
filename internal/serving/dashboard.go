// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package serving

import (
	"context"
	"sort"

	"github.com/tomtom215/retailscope/internal/cache"
	"github.com/tomtom215/retailscope/internal/features"
)

// DefaultTopN is the row limit of the top-products and top-clients queries.
const DefaultTopN = 20

const (
	methodStats           = "stats"
	methodTopProducts     = "top-products"
	methodCategories      = "categories"
	methodTopClients      = "top-clients"
	methodProducts        = "products"
	methodCategoryList    = "category-list"
	methodClients         = "clients"
	methodProductClusters = "product-clusters"
	methodClientClusters  = "client-clusters"
)

// Aggregate column names shared by several queries.
const (
	colRevenue  = "Ingresos"
	colQuantity = "Cantidad"
	colPrice    = "PrecioUnitario"
	colProducts = "Productos_Unicos"
	colInvoices = "Num_Compras"
)

// Stats are the global dashboard KPIs.
type Stats struct {
	TotalRevenue     float64 `json:"total_ventas"`
	TotalQuantity    float64 `json:"total_productos"`
	Transactions     int     `json:"total_transacciones"`
	UniqueProducts   int     `json:"productos_unicos"`
	UniqueCategories int     `json:"categorias_unicas"`
	MeanRevenue      float64 `json:"ingreso_promedio"`
	MedianRevenue    float64 `json:"ingreso_mediano"`
}

// ProductSales is one row of the top-products ranking.
type ProductSales struct {
	Code          string  `json:"CodigoStock"`
	DescriptionEN string  `json:"Descripcion_Ingles"`
	DescriptionES string  `json:"Descripcion_Español"`
	Category      string  `json:"Categoria"`
	Revenue       float64 `json:"Ingresos"`
	Quantity      float64 `json:"Cantidad"`
	MeanPrice     float64 `json:"PrecioUnitario"`
}

// CategorySales is one row of the category breakdown.
type CategorySales struct {
	Category       string  `json:"Categoria"`
	Revenue        float64 `json:"Ingresos"`
	Quantity       float64 `json:"Cantidad_Vendida"`
	UniqueProducts int     `json:"Productos_Unicos"`
}

// ClientActivity is one row of the top-clients ranking.
type ClientActivity struct {
	ClientID       string  `json:"IDCliente"`
	Revenue        float64 `json:"Ingresos_Total"`
	Quantity       float64 `json:"Cantidad_Total"`
	Purchases      int     `json:"Num_Compras"`
	UniqueProducts int     `json:"Productos_Unicos"`
}

// ClientSummary is one row of the client listing.
type ClientSummary struct {
	ClientID  string  `json:"IDCliente"`
	Revenue   float64 `json:"Ingresos_Total"`
	Quantity  float64 `json:"Cantidad_Total"`
	Purchases int     `json:"Num_Compras"`
}

// Product identifies a catalog entry.
type Product struct {
	Code          string `json:"CodigoStock"`
	DescriptionEN string `json:"Descripcion_Ingles"`
	DescriptionES string `json:"Descripcion_Español"`
	Category      string `json:"Categoria"`
}

// datasetBundle returns the current bundle if it carries transactions.
func (s *Service) datasetBundle(ctx context.Context) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := s.holder.Current()
	if !b.HasDataset() {
		return nil, unavailable(ArtifactDataset)
	}
	return b, nil
}

func cached[T any](s *Service, b *Bundle, method string, params any, fn func() (T, error)) (T, error) {
	return cache.Fetch(s.cache, cache.GenerateKey(method, b.Fingerprint, params), fn)
}

// Stats computes the global KPIs.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	b, err := s.datasetBundle(ctx)
	if err != nil {
		return nil, err
	}
	return cached(s, b, methodStats, nil, func() (*Stats, error) {
		st := &Stats{Transactions: len(b.Rows)}
		products := make(map[string]struct{})
		categories := make(map[string]struct{})
		revenues := make([]float64, len(b.Rows))
		for i := range b.Rows {
			tx := &b.Rows[i]
			st.TotalRevenue += tx.Revenue
			st.TotalQuantity += tx.Quantity
			products[tx.ProductCode] = struct{}{}
			categories[tx.Category] = struct{}{}
			revenues[i] = tx.Revenue
		}
		st.UniqueProducts = len(products)
		st.UniqueCategories = len(categories)
		if n := len(revenues); n > 0 {
			st.MeanRevenue = st.TotalRevenue / float64(n)
			st.MedianRevenue = median(revenues)
		}
		return st, nil
	})
}

// median sorts v in place.
func median(v []float64) float64 {
	sort.Float64s(v)
	n := len(v)
	if n%2 == 1 {
		return v[n/2]
	}
	return (v[n/2-1] + v[n/2]) / 2
}

// TopProducts ranks products by revenue. Ties are broken by product code,
// then English description.
func (s *Service) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	b, err := s.datasetBundle(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultTopN
	}
	return cached(s, b, methodTopProducts, limit, func() ([]ProductSales, error) {
		t, err := features.GroupBy(b.Rows,
			[]features.Key{features.KeyProductCode, features.KeyDescriptionEN, features.KeyDescriptionES, features.KeyCategory},
			[]features.Agg{
				{Column: features.ColRevenue, Stat: features.StatSum, As: colRevenue},
				{Column: features.ColQuantity, Stat: features.StatSum, As: colQuantity},
				{Column: features.ColUnitPrice, Stat: features.StatMean, As: colPrice},
			})
		if err != nil {
			return nil, err
		}
		out := make([]ProductSales, len(t.Rows))
		for i, r := range t.Rows {
			out[i] = ProductSales{
				Code:          r.Keys[0],
				DescriptionEN: r.Keys[1],
				DescriptionES: r.Keys[2],
				Category:      r.Keys[3],
				Revenue:       t.Value(i, colRevenue),
				Quantity:      t.Value(i, colQuantity),
				MeanPrice:     t.Value(i, colPrice),
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			a, c := out[i], out[j]
			if a.Revenue != c.Revenue {
				return a.Revenue > c.Revenue
			}
			if a.Code != c.Code {
				return a.Code < c.Code
			}
			return a.DescriptionEN < c.DescriptionEN
		})
		return head(out, limit), nil
	})
}

// Categories breaks revenue down by category, highest first.
func (s *Service) Categories(ctx context.Context) ([]CategorySales, error) {
	b, err := s.datasetBundle(ctx)
	if err != nil {
		return nil, err
	}
	return cached(s, b, methodCategories, nil, func() ([]CategorySales, error) {
		t, err := features.GroupBy(b.Rows,
			[]features.Key{features.KeyCategory},
			[]features.Agg{
				{Column: features.ColRevenue, Stat: features.StatSum, As: colRevenue},
				{Column: features.ColQuantity, Stat: features.StatSum, As: colQuantity},
				{Column: features.ColProductCode, Stat: features.StatNUnique, As: colProducts},
			})
		if err != nil {
			return nil, err
		}
		out := make([]CategorySales, len(t.Rows))
		for i, r := range t.Rows {
			out[i] = CategorySales{
				Category:       r.Keys[0],
				Revenue:        t.Value(i, colRevenue),
				Quantity:       t.Value(i, colQuantity),
				UniqueProducts: int(t.Value(i, colProducts)),
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Revenue != out[j].Revenue {
				return out[i].Revenue > out[j].Revenue
			}
			return out[i].Category < out[j].Category
		})
		return out, nil
	})
}

// TopClients ranks clients by distinct invoices, then revenue, then id.
func (s *Service) TopClients(ctx context.Context, limit int) ([]ClientActivity, error) {
	b, err := s.datasetBundle(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultTopN
	}
	return cached(s, b, methodTopClients, limit, func() ([]ClientActivity, error) {
		t, err := clientTable(b, features.Agg{Column: features.ColProductCode, Stat: features.StatNUnique, As: colProducts})
		if err != nil {
			return nil, err
		}
		out := make([]ClientActivity, 0, len(t.Rows))
		for i, r := range t.Rows {
			if r.Keys[0] == "" {
				continue
			}
			out = append(out, ClientActivity{
				ClientID:       r.Keys[0],
				Revenue:        t.Value(i, colRevenue),
				Quantity:       t.Value(i, colQuantity),
				Purchases:      int(t.Value(i, colInvoices)),
				UniqueProducts: int(t.Value(i, colProducts)),
			})
		}
		sort.SliceStable(out, func(i, j int) bool {
			a, c := out[i], out[j]
			if a.Purchases != c.Purchases {
				return a.Purchases > c.Purchases
			}
			if a.Revenue != c.Revenue {
				return a.Revenue > c.Revenue
			}
			return a.ClientID < c.ClientID
		})
		return head(out, limit), nil
	})
}

// Clients lists every client by revenue, highest first.
func (s *Service) Clients(ctx context.Context) ([]ClientSummary, error) {
	b, err := s.datasetBundle(ctx)
	if err != nil {
		return nil, err
	}
	return cached(s, b, methodClients, nil, func() ([]ClientSummary, error) {
		t, err := clientTable(b)
		if err != nil {
			return nil, err
		}
		out := make([]ClientSummary, 0, len(t.Rows))
		for i, r := range t.Rows {
			if r.Keys[0] == "" {
				continue
			}
			out = append(out, ClientSummary{
				ClientID:  r.Keys[0],
				Revenue:   t.Value(i, colRevenue),
				Quantity:  t.Value(i, colQuantity),
				Purchases: int(t.Value(i, colInvoices)),
			})
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Revenue != out[j].Revenue {
				return out[i].Revenue > out[j].Revenue
			}
			return out[i].ClientID < out[j].ClientID
		})
		return out, nil
	})
}

func clientTable(b *Bundle, extra ...features.Agg) (*features.Table, error) {
	aggs := append([]features.Agg{
		{Column: features.ColRevenue, Stat: features.StatSum, As: colRevenue},
		{Column: features.ColQuantity, Stat: features.StatSum, As: colQuantity},
		{Column: features.ColInvoiceID, Stat: features.StatNUnique, As: colInvoices},
	}, extra...)
	return features.GroupBy(b.Rows, []features.Key{features.KeyClientID}, aggs)
}

// Products lists distinct catalog entries by English description.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	b, err := s.datasetBundle(ctx)
	if err != nil {
		return nil, err
	}
	return cached(s, b, methodProducts, nil, func() ([]Product, error) {
		t, err := features.GroupBy(b.Rows,
			[]features.Key{features.KeyProductCode, features.KeyDescriptionEN, features.KeyDescriptionES, features.KeyCategory},
			nil)
		if err != nil {
			return nil, err
		}
		out := make([]Product, len(t.Rows))
		for i, r := range t.Rows {
			out[i] = Product{Code: r.Keys[0], DescriptionEN: r.Keys[1], DescriptionES: r.Keys[2], Category: r.Keys[3]}
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].DescriptionEN != out[j].DescriptionEN {
				return out[i].DescriptionEN < out[j].DescriptionEN
			}
			return out[i].Code < out[j].Code
		})
		return out, nil
	})
}

// CategoryList returns the sorted category names.
func (s *Service) CategoryList(ctx context.Context) ([]string, error) {
	b, err := s.datasetBundle(ctx)
	if err != nil {
		return nil, err
	}
	return cached(s, b, methodCategoryList, nil, func() ([]string, error) {
		seen := make(map[string]struct{})
		for i := range b.Rows {
			seen[b.Rows[i].Category] = struct{}{}
		}
		out := make([]string, 0, len(seen))
		for c := range seen {
			out = append(out, c)
		}
		sort.Strings(out)
		return out, nil
	})
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
