// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package pool

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/google/go-cmp/cmp"

	"github.com/open-policy-agent/symtab/intern"
	"github.com/open-policy-agent/symtab/logging"
)

func testOpts(extra ...Option) []Option {
	return append([]Option{
		WithRegistry(NewRegistry()),
		WithLogger(logging.NewNoOpLogger()),
	}, extra...)
}

func TestDefineConstants(t *testing.T) {
	d := Define("keywords", testOpts(
		WithConstants(Literal("FOO", "foo"), Named("bar"), Literal("EMPTY", "")),
	)...)

	if d.Built() {
		t.Fatal("expected lazy construction")
	}

	want := map[string]intern.ID{"FOO": 1, "bar": 2, "EMPTY": 3}
	for name, id := range want {
		if got := d.MustID(name); got != id {
			t.Errorf("constant %s: expected identifier %d, got %d", name, id, got)
		}
	}

	m := d.Map()
	if !d.Built() {
		t.Fatal("expected map to be built")
	}

	texts := map[intern.ID]string{1: "foo", 2: "bar", 3: ""}
	for id, text := range texts {
		if got, ok := m.Get(id); !ok || got != text {
			t.Errorf("identifier %d: expected %q, got %q", id, text, got)
		}
	}
	if m.NextID() != 4 {
		t.Errorf("expected first dynamic identifier 4, got %d", m.NextID())
	}
}

func TestStaticConstantScenario(t *testing.T) {
	d := Define("scenario", testOpts(WithConstants(Literal("FOO", "foo")))...)
	m := d.Map()

	if id := m.Intern("foo"); id != d.MustID("FOO") {
		t.Errorf("expected dynamic intern to return constant identifier %d, got %d", d.MustID("FOO"), id)
	}
	id := m.Intern("bar")
	if id != 2 {
		t.Fatalf("expected identifier 2, got %d", id)
	}
	if s, _ := m.Get(2); s != "bar" {
		t.Errorf("expected %q, got %q", "bar", s)
	}
}

func TestDynamicNeverReusesReserved(t *testing.T) {
	d := Define("reserved", testOpts(WithConstants(Named("a"), Named("b"), Named("c")))...)
	m := d.Map()

	for i := range 100 {
		id := m.Intern(strings.Repeat("x", i+1))
		if id <= 3 {
			t.Fatalf("dynamic identifier %d collides with constants", id)
		}
	}
}

func TestMapBuiltOnce(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	d := Define("racy", testOpts(WithConstants(Named("seed")))...)

	const workers = 16
	maps := make([]*intern.Map, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			maps[i] = d.Map()
		}()
	}
	close(start)
	wg.Wait()

	for i, m := range maps {
		if m != maps[0] {
			t.Fatalf("worker %d observed a different map", i)
		}
	}
	if id, ok := maps[0].Lookup("seed"); !ok || id != 1 {
		t.Errorf("expected seeded constant visible to all workers, got %d (found=%v)", id, ok)
	}
}

func TestInvalidDefinitionPanics(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{
			name: "initial_id_collides",
			opts: []Option{WithConstants(Named("a"), Named("b")), WithInitialID(2)},
		},
		{
			name: "unknown_hasher",
			opts: []Option{WithHashers("crc")},
		},
		{
			name: "duplicate_constant_name",
			opts: []Option{WithConstants(Literal("A", "a"), Literal("A", "b"))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Define(tt.name, testOpts(tt.opts...)...)
			for range 2 {
				func() {
					defer func() {
						if recover() == nil {
							t.Error("expected panic")
						}
					}()
					d.Map()
				}()
			}
		})
	}
}

func TestIndependentHashers(t *testing.T) {
	d := Define("hashed", testOpts(WithHashers("xxhash"), WithCapacity(64))...)
	m := d.Map()

	id := m.Intern("value")
	if s, ok := m.Get(id); !ok || s != "value" {
		t.Errorf("expected %q, got %q", "value", s)
	}
}

func TestMustIDUnknown(t *testing.T) {
	d := Define("unknown", testOpts()...)
	if _, ok := d.ID("nope"); ok {
		t.Fatal("expected unknown constant")
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	d.MustID("nope")
}

func TestConstants(t *testing.T) {
	d := Define("listed", testOpts(WithConstants(Named("a"), Literal("B", "b")))...)

	want := []Constant{{Name: "a", Text: "a"}, {Name: "B", Text: "b"}}
	if diff := cmp.Diff(want, d.Constants()); diff != "" {
		t.Errorf("unexpected constants (-want, +got):\n%s", diff)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	b := Define("b", WithRegistry(r))
	a := Define("a", WithRegistry(r))

	if err := r.Register(a); err != nil {
		t.Errorf("expected re-registering the same definition to succeed: %v", err)
	}
	if err := r.Register(newDefinition("a", []Option{WithRegistry(r)})); err == nil {
		t.Error("expected duplicate name to fail")
	}

	defs := r.Definitions()
	if len(defs) != 2 || defs[0] != a || defs[1] != b {
		t.Errorf("expected definitions sorted by name")
	}
	if got, ok := r.Lookup("b"); !ok || got != b {
		t.Error("expected lookup by name")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected Define to panic on duplicate name")
		}
	}()
	Define("a", WithRegistry(r))
}

func TestGroupShared(t *testing.T) {
	g := NewGroup("shared", true, testOpts(WithConstants(Named("common")))...)

	a := g.Define("a")
	b := g.Define("b")
	if a != b {
		t.Fatal("expected shared group members to use one definition")
	}
	if a.Map().Intern("x") != b.Map().Intern("x") {
		t.Error("expected shared identifier space")
	}
	if diff := cmp.Diff([]string{"a", "b"}, g.Members()); diff != "" {
		t.Errorf("unexpected members (-want, +got):\n%s", diff)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected per-member options to be rejected")
		}
	}()
	g.Define("c", WithCapacity(1))
}

func TestGroupIndependent(t *testing.T) {
	r := NewRegistry()
	g := NewGroup("split", false, WithRegistry(r), WithLogger(logging.NewNoOpLogger()))

	a := g.Define("a", WithConstants(Named("only-a")))
	b := g.Define("b", WithHashers("maphash"))

	if a == b || a.Map() == b.Map() {
		t.Fatal("expected independent maps")
	}
	if g.Define("a") != a {
		t.Error("expected repeated Define to return the same definition")
	}
	if a.Name() != "split/a" {
		t.Errorf("unexpected name %q", a.Name())
	}

	// Same text, independent counters.
	idA := a.Map().Intern("text")
	idB := b.Map().Intern("text")
	if idA != 2 || idB != 1 {
		t.Errorf("expected independent identifiers 2 and 1, got %d and %d", idA, idB)
	}
	if _, ok := b.Map().Lookup("only-a"); ok {
		t.Error("constant leaked across independent pools")
	}
	if _, ok := r.Lookup("split/b"); !ok {
		t.Error("expected member registered")
	}
}
