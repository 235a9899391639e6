// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package metrics exports interning map statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/open-policy-agent/symtab/intern"
	"github.com/open-policy-agent/symtab/pool"
)

const namespace = "symtab"

// Source provides statistics for one map.
type Source interface {
	Stats() intern.Stats
}

var (
	entriesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "entries"),
		"Number of identifiers stored in the pool.",
		[]string{"pool"}, nil,
	)
	nextIDDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "next_id"),
		"Next identifier the pool will allocate (0 once exhausted).",
		[]string{"pool"}, nil,
	)
	arenaBytesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "arena_bytes"),
		"Bytes of interned text held by the pool.",
		[]string{"pool"}, nil,
	)
	lookupsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "lookups_total"),
		"Interning calls by result.",
		[]string{"pool", "result"}, nil,
	)
)

// Collector implements prometheus.Collector over a set of maps.
type Collector struct {
	sources func() []Source
}

// NewCollector returns a collector over a fixed set of sources.
func NewCollector(sources ...Source) *Collector {
	return &Collector{
		sources: func() []Source { return sources },
	}
}

// NewRegistryCollector returns a collector over every built definition in
// r. Definitions whose map has not been built yet are skipped, so
// collection never forces construction.
func NewRegistryCollector(r *pool.Registry) *Collector {
	return &Collector{
		sources: func() []Source {
			var out []Source
			for _, d := range r.Definitions() {
				if d.Built() {
					out = append(out, d.Map())
				}
			}
			return out
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- entriesDesc
	ch <- nextIDDesc
	ch <- arenaBytesDesc
	ch <- lookupsDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, src := range c.sources() {
		s := src.Stats()
		ch <- prometheus.MustNewConstMetric(entriesDesc, prometheus.GaugeValue, float64(s.Entries), s.Name)
		ch <- prometheus.MustNewConstMetric(nextIDDesc, prometheus.GaugeValue, float64(s.NextID), s.Name)
		ch <- prometheus.MustNewConstMetric(arenaBytesDesc, prometheus.GaugeValue, float64(s.ArenaBytes), s.Name)
		ch <- prometheus.MustNewConstMetric(lookupsDesc, prometheus.CounterValue, float64(s.Hits), s.Name, "hit")
		ch <- prometheus.MustNewConstMetric(lookupsDesc, prometheus.CounterValue, float64(s.Misses), s.Name, "miss")
	}
}
