// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package serving

import (
	"github.com/tomtom215/retailscope/internal/dataset"
)

// ProductHistory is what the transactions say about a product name.
type ProductHistory struct {
	Category string // category of the first matching row
	priceSum float64
	rows     int
}

// MeanPrice returns the average unit price over matching rows.
func (p *ProductHistory) MeanPrice() float64 {
	if p.rows == 0 {
		return 0
	}
	return p.priceSum / float64(p.rows)
}

// Rows returns how many transactions matched.
func (p *ProductHistory) Rows() int { return p.rows }

// Index holds the lookups the request path needs, built once per bundle.
type Index struct {
	byName      map[string]*ProductHistory // English or Spanish description
	byCode      map[string]*ProductHistory
	globalPrice float64
	clients     map[string][]int
}

// BuildIndex scans rows once.
func BuildIndex(rows []dataset.Transaction) *Index {
	idx := &Index{
		byName:  make(map[string]*ProductHistory),
		byCode:  make(map[string]*ProductHistory),
		clients: make(map[string][]int),
	}

	priceSum := 0.0
	for i := range rows {
		tx := &rows[i]
		priceSum += tx.UnitPrice

		idx.add(idx.byName, tx.DescriptionEN, tx)
		if tx.DescriptionES != tx.DescriptionEN {
			idx.add(idx.byName, tx.DescriptionES, tx)
		}
		idx.add(idx.byCode, tx.ProductCode, tx)

		if tx.ClientID != "" {
			idx.clients[tx.ClientID] = append(idx.clients[tx.ClientID], i)
		}
	}
	if len(rows) > 0 {
		idx.globalPrice = priceSum / float64(len(rows))
	}
	return idx
}

func (idx *Index) add(m map[string]*ProductHistory, key string, tx *dataset.Transaction) {
	if key == "" {
		return
	}
	h, ok := m[key]
	if !ok {
		h = &ProductHistory{Category: tx.Category}
		m[key] = h
	}
	h.priceSum += tx.UnitPrice
	h.rows++
}

// Product finds a product by English or Spanish description, then by code.
func (idx *Index) Product(name string) (*ProductHistory, bool) {
	if idx == nil || name == "" {
		return nil, false
	}
	if h, ok := idx.byName[name]; ok {
		return h, true
	}
	h, ok := idx.byCode[name]
	return h, ok
}

// GlobalMeanPrice is the average unit price over all rows.
func (idx *Index) GlobalMeanPrice() float64 {
	if idx == nil {
		return 0
	}
	return idx.globalPrice
}

// ClientRows returns the row indices of a client in input order.
func (idx *Index) ClientRows(id string) []int {
	if idx == nil {
		return nil
	}
	return idx.clients[id]
}
