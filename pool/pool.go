// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package pool declares interning namespaces.
//
// A namespace is a zero-sized marker type implementing Pool. Its Map method
// returns the single, lazily built interning map shared by every symbol of
// that namespace:
//
//	var keywords = pool.Define("keywords", pool.WithConstants(pool.Literal("Foo", "foo")))
//
//	type Keywords struct{}
//
//	func (Keywords) Map() *intern.Map { return keywords.Map() }
//
// Constants receive the identifiers 1..N in declaration order and dynamic
// identifiers start after them.
package pool

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/open-policy-agent/symtab/intern"
	"github.com/open-policy-agent/symtab/intern/hashing"
	"github.com/open-policy-agent/symtab/logging"
)

// Pool is implemented by namespace marker types. Map must always return the
// same map and must be callable on the zero value.
type Pool interface {
	Map() *intern.Map
}

// Constant is a string declared with a reserved identifier.
type Constant struct {
	// Name identifies the constant in Definition.ID.
	Name string
	// Text is the interned text.
	Text string
}

// Named declares a constant whose text is its name.
func Named(name string) Constant {
	return Constant{Name: name, Text: name}
}

// Literal declares a constant with text different from its name.
func Literal(name, text string) Constant {
	return Constant{Name: name, Text: text}
}

// Option is a configuration option for a Definition.
type Option func(*options)

type options struct {
	constants      []Constant
	initialID      intern.ID
	forwardHasher  intern.Hasher[string]
	backwardHasher intern.Hasher[intern.ID]
	hashErr        error
	capacity       int
	logger         logging.Logger
	registry       *Registry
}

// WithConstants appends constants to the namespace.
func WithConstants(cs ...Constant) Option {
	return func(o *options) {
		o.constants = append(o.constants, cs...)
	}
}

// WithInitialID sets the first dynamic identifier. It must exceed the number
// of constants. Defaults to the number of constants plus one.
func WithInitialID(id intern.ID) Option {
	return func(o *options) {
		o.initialID = id
	}
}

// WithForwardHasher sets the hash of the text to identifier table.
func WithForwardHasher(h intern.Hasher[string]) Option {
	return func(o *options) {
		o.forwardHasher = h
	}
}

// WithBackwardHasher sets the hash of the identifier to text table.
func WithBackwardHasher(h intern.Hasher[intern.ID]) Option {
	return func(o *options) {
		o.backwardHasher = h
	}
}

// WithHashers selects a named hash strategy from package hashing for both
// tables.
func WithHashers(name string) Option {
	return func(o *options) {
		o.forwardHasher, o.backwardHasher, o.hashErr = hashing.ByName(name)
	}
}

// WithCapacity preallocates room for n entries.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithLogger sets the logger of the namespace map.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry registers the definition in r instead of DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// Definition describes a namespace and owns its map.
type Definition struct {
	name  string
	opts  options
	ids   map[string]intern.ID
	get   func() *intern.Map
	built atomic.Bool
}

// Define declares a namespace and registers it. The map is built on the
// first call to Map. Define panics if the name is already registered.
func Define(name string, opts ...Option) *Definition {
	d := newDefinition(name, opts)
	if err := d.opts.registry.Register(d); err != nil {
		panic(err)
	}
	return d
}

func newDefinition(name string, opts []Option) *Definition {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry
	}

	d := &Definition{
		name: name,
		opts: o,
		ids:  make(map[string]intern.ID, len(o.constants)),
	}
	for i, c := range o.constants {
		if _, ok := d.ids[c.Name]; !ok {
			d.ids[c.Name] = intern.ID(i + 1)
		}
	}
	d.get = sync.OnceValue(d.build)
	return d
}

// build constructs the map. It runs exactly once; an invalid definition
// panics here and on every later call to Map.
func (d *Definition) build() *intern.Map {
	o := d.opts
	if o.hashErr != nil {
		panic(fmt.Errorf("pool %q: %w", d.name, o.hashErr))
	}
	if len(d.ids) != len(o.constants) {
		panic(fmt.Errorf("pool %q: duplicate constant names", d.name))
	}

	seed := make([]intern.Entry, len(o.constants))
	for i, c := range o.constants {
		seed[i] = intern.Entry{ID: intern.ID(i + 1), Text: c.Text}
	}

	initialID := o.initialID
	if initialID == 0 {
		initialID = intern.ID(len(o.constants) + 1)
	}

	mapOpts := []intern.Opt{
		intern.WithName(d.name),
		intern.WithSeed(seed...),
		intern.WithInitialID(initialID),
		intern.WithForwardHasher(o.forwardHasher),
		intern.WithBackwardHasher(o.backwardHasher),
		intern.WithCapacity(o.capacity),
		intern.WithLogger(o.logger),
	}

	m, err := intern.New(mapOpts...)
	if err != nil {
		panic(fmt.Errorf("pool %q: %w", d.name, err))
	}

	d.built.Store(true)
	return m
}

// Name returns the namespace name.
func (d *Definition) Name() string {
	return d.name
}

// Map returns the namespace map, building it on first use. Concurrent first
// calls block until the single build completes.
func (d *Definition) Map() *intern.Map {
	return d.get()
}

// Built returns true once the map has been constructed.
func (d *Definition) Built() bool {
	return d.built.Load()
}

// Constants returns the declared constants in identifier order.
func (d *Definition) Constants() []Constant {
	return append([]Constant(nil), d.opts.constants...)
}

// ID returns the reserved identifier of the named constant.
func (d *Definition) ID(name string) (intern.ID, bool) {
	id, ok := d.ids[name]
	return id, ok
}

// MustID is like ID but panics if the constant is not declared.
func (d *Definition) MustID(name string) intern.ID {
	id, ok := d.ids[name]
	if !ok {
		panic(fmt.Sprintf("pool %q: constant %q not declared", d.name, name))
	}
	return id
}
