// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package serving

import (
	"time"

	"github.com/tomtom215/retailscope/internal/dataset"
	"github.com/tomtom215/retailscope/internal/features"
	"github.com/tomtom215/retailscope/internal/regress"
)

// Rule names the source a reconstructed field was taken from.
type Rule string

// Fallback rules, in precedence order per field.
const (
	RuleRequest        Rule = "request"
	RuleClientHistory  Rule = "client_history"
	RuleProductHistory Rule = "product_history"
	RuleGlobalMean     Rule = "global_mean"
	RuleDefault        Rule = "default"
	RuleNone           Rule = "none"
	RuleEncoded        Rule = "encoded"
	RuleSentinel       Rule = "sentinel"
)

// PredictRequest is a partial product prediction input. Zero values mean
// "not provided".
type PredictRequest struct {
	Product   string  `json:"producto" validate:"max=512"`
	Category  string  `json:"categoria" validate:"max=256"`
	Quantity  float64 `json:"cantidad" validate:"finite,gte=0,lte=1000000"`
	UnitPrice float64 `json:"precio_unitario" validate:"finite,gte=0,lte=1000000"`
}

// FeatureVector is a fully resolved regressor input.
type FeatureVector struct {
	Quantity     float64
	UnitPrice    float64
	Category     string
	CategoryCode int
	Month        int
	Weekday      int // 0 = Monday
	Hour         int
}

// Values returns the vector in regressor column order.
func (f FeatureVector) Values() []float64 {
	return regress.Vector(f.Quantity, f.UnitPrice, f.CategoryCode, f.Month, f.Weekday, f.Hour)
}

// Trace records which rule produced each field.
type Trace struct {
	ProductMatched bool `json:"product_matched"`
	UnitPrice      Rule `json:"unit_price"`
	Category       Rule `json:"category"`
	CategoryCode   Rule `json:"category_code"`
	Quantity       Rule `json:"quantity"`
}

// UnseenCategory reports whether the category fell back to the sentinel code.
func (t Trace) UnseenCategory() bool { return t.CategoryCode == RuleSentinel }

// Reconstruct resolves a partial request into the regressor's feature
// vector. It is the only place request fallbacks are applied:
//
//  1. unit price: request if > 0, else the matched product's mean price,
//     else the global mean price
//  2. category: request if non-empty, else the matched product's category
//  3. category code: encoder lookup, sentinel 0 when unseen or empty
//  4. quantity: request if > 0, else 1
//  5. month, weekday and hour from now
//
// Products match on English description, Spanish description, then code.
func Reconstruct(b *Bundle, req PredictRequest, now time.Time) (FeatureVector, Trace, error) {
	var (
		fv FeatureVector
		tr Trace
	)
	if b == nil || b.Encoder == nil {
		return fv, tr, unavailable(ArtifactEncoder)
	}

	var hist *ProductHistory
	if b.Index != nil {
		hist, tr.ProductMatched = b.Index.Product(req.Product)
	}

	switch {
	case req.UnitPrice > 0:
		fv.UnitPrice, tr.UnitPrice = req.UnitPrice, RuleRequest
	case hist != nil && hist.Rows() > 0:
		fv.UnitPrice, tr.UnitPrice = hist.MeanPrice(), RuleProductHistory
	case b.HasDataset():
		fv.UnitPrice, tr.UnitPrice = b.Index.GlobalMeanPrice(), RuleGlobalMean
	default:
		return fv, tr, unavailable(ArtifactDataset)
	}

	switch {
	case req.Category != "":
		fv.Category, tr.Category = req.Category, RuleRequest
	case hist != nil:
		fv.Category, tr.Category = hist.Category, RuleProductHistory
	default:
		tr.Category = RuleNone
	}
	encodeCategory(b.Encoder, &fv, &tr)

	if req.Quantity > 0 {
		fv.Quantity, tr.Quantity = req.Quantity, RuleRequest
	} else {
		fv.Quantity, tr.Quantity = 1, RuleDefault
	}

	fv.stamp(now)
	return fv, tr, nil
}

// clientVector builds the vector of a client prediction. The history means
// are used as they are, including zero prices and net returns; only the
// category goes through the encoder fallback.
func clientVector(b *Bundle, qty, price float64, category string, now time.Time) (FeatureVector, Trace, error) {
	fv := FeatureVector{Quantity: qty, UnitPrice: price, Category: category}
	tr := Trace{UnitPrice: RuleClientHistory, Category: RuleClientHistory, Quantity: RuleClientHistory}
	if b == nil || b.Encoder == nil {
		return fv, tr, unavailable(ArtifactEncoder)
	}
	encodeCategory(b.Encoder, &fv, &tr)
	fv.stamp(now)
	return fv, tr, nil
}

func encodeCategory(enc *features.Encoder, fv *FeatureVector, tr *Trace) {
	if code, ok := enc.Lookup(fv.Category); ok && fv.Category != "" {
		fv.CategoryCode, tr.CategoryCode = code, RuleEncoded
	} else {
		fv.CategoryCode, tr.CategoryCode = features.SentinelCode, RuleSentinel
	}
}

func (f *FeatureVector) stamp(now time.Time) {
	f.Month = int(now.Month())
	f.Weekday = dataset.MondayWeekday(now)
	f.Hour = now.Hour()
}
