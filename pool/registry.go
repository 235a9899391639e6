// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package pool

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// DefaultRegistry holds every definition that did not select a registry.
var DefaultRegistry = NewRegistry()

// Registry tracks namespace definitions by name.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: map[string]*Definition{}}
}

// Register adds d to the registry. Registering the same definition twice is
// a no-op; registering a different definition under a taken name fails.
func (r *Registry) Register(d *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.defs[d.name]; ok {
		if prev == d {
			return nil
		}
		return fmt.Errorf("pool %q already registered", d.name)
	}
	r.defs[d.name] = d
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	return d, ok
}

// Definitions returns the registered definitions sorted by name.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	defs := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		defs = append(defs, d)
	}
	r.mu.RUnlock()

	slices.SortFunc(defs, func(a, b *Definition) int {
		return strings.Compare(a.name, b.name)
	})
	return defs
}

// Registered returns the definitions of DefaultRegistry sorted by name.
func Registered() []*Definition {
	return DefaultRegistry.Definitions()
}
