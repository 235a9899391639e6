// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/open-policy-agent/symtab/intern"
	"github.com/open-policy-agent/symtab/logging"
	"github.com/open-policy-agent/symtab/pool"
)

func TestCollector(t *testing.T) {
	m := intern.MustNew(intern.WithName("words"), intern.WithLogger(logging.NewNoOpLogger()))
	m.Intern("a")
	m.Intern("a")
	m.Intern("bc")

	c := NewCollector(m)

	expected := `
# HELP symtab_pool_entries Number of identifiers stored in the pool.
# TYPE symtab_pool_entries gauge
symtab_pool_entries{pool="words"} 2
# HELP symtab_pool_lookups_total Interning calls by result.
# TYPE symtab_pool_lookups_total counter
symtab_pool_lookups_total{pool="words",result="hit"} 1
symtab_pool_lookups_total{pool="words",result="miss"} 2
# HELP symtab_pool_next_id Next identifier the pool will allocate (0 once exhausted).
# TYPE symtab_pool_next_id gauge
symtab_pool_next_id{pool="words"} 3
# HELP symtab_pool_arena_bytes Bytes of interned text held by the pool.
# TYPE symtab_pool_arena_bytes gauge
symtab_pool_arena_bytes{pool="words"} 3
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected)); err != nil {
		t.Fatal(err)
	}
}

func TestRegistryCollectorSkipsUnbuilt(t *testing.T) {
	r := pool.NewRegistry()
	built := pool.Define("built", pool.WithRegistry(r), pool.WithLogger(logging.NewNoOpLogger()))
	lazy := pool.Define("lazy", pool.WithRegistry(r), pool.WithLogger(logging.NewNoOpLogger()))
	built.Map().Intern("x")

	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(NewRegistryCollector(r))

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}

	var entries *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "symtab_pool_entries" {
			entries = f
		}
	}
	if entries == nil {
		t.Fatal("expected entries family")
	}
	if len(entries.GetMetric()) != 1 {
		t.Fatalf("expected one pool, got %d", len(entries.GetMetric()))
	}
	if got := entries.GetMetric()[0].GetGauge().GetValue(); got != 1 {
		t.Errorf("expected 1 entry, got %v", got)
	}
	if lazy.Built() {
		t.Error("collection must not build pools")
	}
}
