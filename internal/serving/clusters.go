// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package serving

import (
	"context"
	"sort"
	"strconv"

	"github.com/tomtom215/retailscope/internal/artifacts"
	"github.com/tomtom215/retailscope/internal/features"
)

// ClusterSummary aggregates one cluster. Products report quantity, clients
// report transactions.
type ClusterSummary struct {
	Cluster      int     `json:"Cluster"`
	Products     int     `json:"Num_Productos,omitempty"`
	Clients      int     `json:"Num_Clientes,omitempty"`
	Revenue      float64 `json:"Ingresos_Total"`
	Quantity     float64 `json:"Cantidad_Total,omitempty"`
	Transactions float64 `json:"Num_Transacciones,omitempty"`
}

// Size returns the number of members.
func (c ClusterSummary) Size() int { return c.Products + c.Clients }

// Member is one entity of a cluster: key, label and feature columns plus
// Cluster.
type Member map[string]any

// ClusterReport is the response of a cluster inspection query.
type ClusterReport struct {
	View          string              `json:"view"`
	Release       string              `json:"release,omitempty"`
	Summary       []ClusterSummary    `json:"summary"`
	Clusters      map[string][]Member `json:"clusters"`
	TotalClusters int                 `json:"total_clusters"`
}

// ClusterFilter limits a report to a single cluster when set.
type ClusterFilter struct {
	Cluster *int
}

func (f ClusterFilter) keep(id int) bool { return f.Cluster == nil || *f.Cluster == id }

// ProductClusters reports the product segmentation.
func (s *Service) ProductClusters(ctx context.Context, f ClusterFilter) (*ClusterReport, error) {
	return s.clusterReport(ctx, f, ArtifactProductCluster, methodProductClusters,
		func(b *Bundle) *ClusterSet { return b.Products })
}

// ClientClusters reports the client segmentation.
func (s *Service) ClientClusters(ctx context.Context, f ClusterFilter) (*ClusterReport, error) {
	return s.clusterReport(ctx, f, ArtifactClientCluster, methodClientClusters,
		func(b *Bundle) *ClusterSet { return b.Clients })
}

func (s *Service) clusterReport(ctx context.Context, f ClusterFilter, artifact, method string, pick func(*Bundle) *ClusterSet) (*ClusterReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := s.holder.Current()
	if b == nil || pick(b) == nil {
		return nil, unavailable(artifact)
	}
	set := pick(b)

	if f.Cluster != nil && !hasCluster(set.Table, *f.Cluster) {
		return nil, &NotFoundError{Kind: "cluster", ID: strconv.Itoa(*f.Cluster)}
	}
	return cached(s, b, method, f.Cluster, func() (*ClusterReport, error) {
		r := BuildClusterReport(set.Table, f)
		r.Release = b.Release
		return r, nil
	})
}

func hasCluster(t *artifacts.ClusterTable, id int) bool {
	for _, r := range t.Rows {
		if r.Cluster == id {
			return true
		}
	}
	return false
}

// Summarize computes per-cluster totals in cluster order. Missing columns
// contribute 0.
func Summarize(t *artifacts.ClusterTable) []ClusterSummary {
	client := t.LabelColumn == features.LabelClient
	revenue := t.Col(features.FeatRevenueTotal)
	second := t.Col(features.FeatQuantityTotal)
	if client {
		second = t.Col(features.FeatTransactions)
	}

	byID := make(map[int]*ClusterSummary)
	for _, r := range t.Rows {
		cs, ok := byID[r.Cluster]
		if !ok {
			cs = &ClusterSummary{Cluster: r.Cluster}
			byID[r.Cluster] = cs
		}
		if client {
			cs.Clients++
		} else {
			cs.Products++
		}
		if revenue >= 0 {
			cs.Revenue += r.Values[revenue]
		}
		if second >= 0 {
			if client {
				cs.Transactions += r.Values[second]
			} else {
				cs.Quantity += r.Values[second]
			}
		}
	}

	out := make([]ClusterSummary, 0, len(byID))
	for _, cs := range byID {
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cluster < out[j].Cluster })
	return out
}

// BuildClusterReport assembles the summary and member listing of t.
func BuildClusterReport(t *artifacts.ClusterTable, f ClusterFilter) *ClusterReport {
	r := &ClusterReport{View: t.View, Clusters: make(map[string][]Member)}

	all := Summarize(t)
	r.TotalClusters = len(all)
	for _, cs := range all {
		if f.keep(cs.Cluster) {
			r.Summary = append(r.Summary, cs)
		}
	}

	for _, row := range t.Rows {
		if !f.keep(row.Cluster) {
			continue
		}
		m := make(Member, len(t.KeyColumns)+len(t.ValueColumns)+2)
		for i, k := range t.KeyColumns {
			m[k] = row.Keys[i]
		}
		if t.LabelColumn != "" {
			m[t.LabelColumn] = row.Label
		}
		for i, c := range t.ValueColumns {
			m[c] = row.Values[i]
		}
		m[artifacts.ClusterColumn] = row.Cluster
		id := strconv.Itoa(row.Cluster)
		r.Clusters[id] = append(r.Clusters[id], m)
	}
	return r
}
