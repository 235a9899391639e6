// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package pool

import (
	"fmt"
	"slices"
	"sync"
)

// Group is a collection of named namespaces that either share one map or
// each own an independent one.
type Group struct {
	name   string
	shared bool
	opts   []Option

	mu      sync.Mutex
	def     *Definition
	members map[string]*Definition
}

// NewGroup creates a group. When shared is true every member resolves
// against a single map named after the group, configured by opts. Otherwise
// each member gets its own map configured by opts followed by its own
// options.
func NewGroup(name string, shared bool, opts ...Option) *Group {
	return &Group{
		name:    name,
		shared:  shared,
		opts:    opts,
		members: map[string]*Definition{},
	}
}

// Shared returns true if members share one map.
func (g *Group) Shared() bool {
	return g.shared
}

// Define returns the definition backing the named member, creating it on
// first use. Calling Define again with the same name returns the same
// definition. Per-member options are rejected for shared groups.
func (g *Group) Define(name string, opts ...Option) *Definition {
	g.mu.Lock()
	defer g.mu.Unlock()

	if d, ok := g.members[name]; ok {
		return d
	}

	var d *Definition
	if g.shared {
		if len(opts) > 0 {
			panic(fmt.Sprintf("pool group %q is shared: member %q cannot have its own options", g.name, name))
		}
		if g.def == nil {
			g.def = Define(g.name, g.opts...)
		}
		d = g.def
	} else {
		all := append(slices.Clone(g.opts), opts...)
		d = Define(g.name+"/"+name, all...)
	}

	g.members[name] = d
	return d
}

// Members returns the member names sorted.
func (g *Group) Members() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	names := make([]string, 0, len(g.members))
	for name := range g.members {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
