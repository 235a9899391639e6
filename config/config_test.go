// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/open-policy-agent/symtab/logging"
	"github.com/open-policy-agent/symtab/pool"
)

const sample = `
pools:
  - name: keywords
    hasher: xxhash
    backward_hasher: maphash
    constants:
      - if
      - name: Else
        text: else
  - name: labels
    group: telemetry
  - name: metrics
    group: telemetry
  - name: paths
    group: split
    initial_id: 100
groups:
  - name: telemetry
    shared: true
  - name: split
    shared: false
    hasher: maphash
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	want := []Constant{{Name: "if", Text: "if"}, {Name: "Else", Text: "else"}}
	if diff := cmp.Diff(want, c.Pools[0].Constants); diff != "" {
		t.Errorf("unexpected constants (-want, +got):\n%s", diff)
	}
	if c.Pools[3].InitialID != 100 {
		t.Errorf("expected initial_id 100, got %d", c.Pools[3].InitialID)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Pools) != 4 || len(c.Groups) != 2 {
		t.Errorf("unexpected config %+v", c)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing_name",
			yaml: "pools: [{hasher: xxhash}]",
			want: "pool name is required",
		},
		{
			name: "duplicate_pool",
			yaml: "pools: [{name: a}, {name: a}]",
			want: `duplicate pool "a"`,
		},
		{
			name: "unknown_hasher",
			yaml: "pools: [{name: a, hasher: crc32}]",
			want: `unknown hash strategy "crc32"`,
		},
		{
			name: "initial_id_too_small",
			yaml: "pools: [{name: a, constants: [x, y], initial_id: 2}]",
			want: "initial_id 2 must exceed",
		},
		{
			name: "duplicate_constant_name",
			yaml: "pools: [{name: k, constants: [a, a]}]",
			want: `duplicate constant name "a"`,
		},
		{
			name: "duplicate_constant_text",
			yaml: "pools: [{name: k, constants: [{name: A, text: a}, {name: B, text: a}]}]",
			want: `duplicate constant text "a"`,
		},
		{
			name: "missing_constant_name",
			yaml: "pools: [{name: k, constants: [{text: a}]}]",
			want: "constant name is required",
		},
		{
			name: "unknown_group",
			yaml: "pools: [{name: a, group: g}]",
			want: `unknown group "g"`,
		},
		{
			name: "shared_member_options",
			yaml: "pools: [{name: a, group: g, constants: [x]}]\ngroups: [{name: g, shared: true}]",
			want: "cannot set their own options",
		},
		{
			name: "malformed",
			yaml: "pools: {",
			want: "config:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDefinitions(t *testing.T) {
	c, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	r := pool.NewRegistry()
	defs, err := c.Definitions(r, logging.NewNoOpLogger())
	if err != nil {
		t.Fatal(err)
	}

	kw := defs["keywords"].Map()
	if id, _ := kw.Lookup("else"); id != 2 {
		t.Errorf("expected constant identifier 2, got %d", id)
	}
	if id := kw.Intern("then"); id != 3 {
		t.Errorf("expected dynamic identifier 3, got %d", id)
	}

	if defs["labels"] != defs["metrics"] {
		t.Error("expected shared group members to share a definition")
	}
	if defs["labels"].Name() != "telemetry" {
		t.Errorf("unexpected shared definition name %q", defs["labels"].Name())
	}

	if id := defs["paths"].Map().Intern("x"); id != 100 {
		t.Errorf("expected identifier 100, got %d", id)
	}

	var names []string
	for _, d := range r.Definitions() {
		names = append(names, d.Name())
	}
	if diff := cmp.Diff([]string{"keywords", "split/paths", "telemetry"}, names); diff != "" {
		t.Errorf("unexpected registered pools (-want, +got):\n%s", diff)
	}

	// Building the same configuration into the same registry collides.
	if _, err := c.Definitions(r, logging.NewNoOpLogger()); err == nil {
		t.Error("expected registry collision error")
	}
}
