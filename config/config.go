// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package config loads pool declarations from YAML.
//
//	pools:
//	  - name: keywords
//	    hasher: xxhash
//	    constants: [if, else]
//	  - name: labels
//	    group: telemetry
//	groups:
//	  - name: telemetry
//	    shared: true
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"go.yaml.in/yaml/v3"

	"github.com/open-policy-agent/symtab/intern"
	"github.com/open-policy-agent/symtab/intern/hashing"
	"github.com/open-policy-agent/symtab/logging"
	"github.com/open-policy-agent/symtab/pool"
)

// Config is the root of a pool configuration file.
type Config struct {
	Pools  []Pool  `yaml:"pools"`
	Groups []Group `yaml:"groups,omitempty"`
}

// Pool configures one namespace.
type Pool struct {
	Name           string     `yaml:"name"`
	Hasher         string     `yaml:"hasher,omitempty"`
	BackwardHasher string     `yaml:"backward_hasher,omitempty"`
	Constants      []Constant `yaml:"constants,omitempty"`
	InitialID      uint32     `yaml:"initial_id,omitempty"`
	Capacity       int        `yaml:"capacity,omitempty"`
	Group          string     `yaml:"group,omitempty"`
}

// Group configures a collection of pools.
type Group struct {
	Name   string `yaml:"name"`
	Shared bool   `yaml:"shared"`
	Hasher string `yaml:"hasher,omitempty"`
}

// Constant is a reserved string. In YAML it is either a scalar, used as
// both name and text, or a mapping with name and text keys.
type Constant struct {
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

// UnmarshalYAML accepts the scalar and mapping forms.
func (c *Constant) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Name = node.Value
		c.Text = node.Value
		return nil
	}

	type plain Constant
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.Text == "" {
		p.Text = p.Name
	}
	*c = Constant(p)
	return nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(bs)
}

// Parse parses and validates a YAML configuration.
func Parse(bs []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(bs, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks names, hash strategies and identifier ranges.
func (c *Config) Validate() error {
	var errs []error

	groups := make(map[string]Group, len(c.Groups))
	for _, g := range c.Groups {
		if g.Name == "" {
			errs = append(errs, errors.New("config: group name is required"))
			continue
		}
		if _, ok := groups[g.Name]; ok {
			errs = append(errs, fmt.Errorf("config: duplicate group %q", g.Name))
		}
		if _, _, err := hashing.ByName(g.Hasher); err != nil {
			errs = append(errs, fmt.Errorf("config: group %q: %w", g.Name, err))
		}
		groups[g.Name] = g
	}

	seen := make(map[string]struct{}, len(c.Pools))
	for _, p := range c.Pools {
		if p.Name == "" {
			errs = append(errs, errors.New("config: pool name is required"))
			continue
		}
		if _, ok := seen[p.Name]; ok {
			errs = append(errs, fmt.Errorf("config: duplicate pool %q", p.Name))
		}
		seen[p.Name] = struct{}{}

		for _, h := range []string{p.Hasher, p.BackwardHasher} {
			if _, _, err := hashing.ByName(h); err != nil {
				errs = append(errs, fmt.Errorf("config: pool %q: %w", p.Name, err))
			}
		}
		errs = append(errs, p.validateConstants()...)
		if p.InitialID != 0 && int(p.InitialID) <= len(p.Constants) {
			errs = append(errs, fmt.Errorf("config: pool %q: initial_id %d must exceed the %d declared constants", p.Name, p.InitialID, len(p.Constants)))
		}
		if p.Group != "" {
			g, ok := groups[p.Group]
			if !ok {
				errs = append(errs, fmt.Errorf("config: pool %q: unknown group %q", p.Name, p.Group))
			} else if g.Shared && !p.standalone() {
				errs = append(errs, fmt.Errorf("config: pool %q: members of shared group %q cannot set their own options", p.Name, p.Group))
			}
		}
	}

	return errors.Join(errs...)
}

func (p Pool) validateConstants() []error {
	var errs []error
	names := make(map[string]struct{}, len(p.Constants))
	texts := make(map[string]struct{}, len(p.Constants))
	for _, c := range p.Constants {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("config: pool %q: constant name is required", p.Name))
			continue
		}
		if _, ok := names[c.Name]; ok {
			errs = append(errs, fmt.Errorf("config: pool %q: duplicate constant name %q", p.Name, c.Name))
		}
		if _, ok := texts[c.Text]; ok {
			errs = append(errs, fmt.Errorf("config: pool %q: duplicate constant text %q", p.Name, c.Text))
		}
		names[c.Name] = struct{}{}
		texts[c.Text] = struct{}{}
	}
	return errs
}

func (p Pool) standalone() bool {
	return p.Hasher == "" && p.BackwardHasher == "" && len(p.Constants) == 0 && p.InitialID == 0 && p.Capacity == 0
}

func (p Pool) options() []pool.Option {
	var opts []pool.Option

	if p.Hasher != "" {
		opts = append(opts, pool.WithHashers(p.Hasher))
	}
	if p.BackwardHasher != "" {
		_, bwd, _ := hashing.ByName(p.BackwardHasher)
		opts = append(opts, pool.WithBackwardHasher(bwd))
	}

	if len(p.Constants) > 0 {
		cs := make([]pool.Constant, len(p.Constants))
		for i, c := range p.Constants {
			cs[i] = pool.Literal(c.Name, c.Text)
		}
		opts = append(opts, pool.WithConstants(cs...))
	}
	if p.InitialID != 0 {
		opts = append(opts, pool.WithInitialID(intern.ID(p.InitialID)))
	}
	if p.Capacity != 0 {
		opts = append(opts, pool.WithCapacity(p.Capacity))
	}
	return opts
}

// Definitions builds the configured pools, registering them in r. The
// result is keyed by pool name.
func (c *Config) Definitions(r *pool.Registry, logger logging.Logger) (map[string]*pool.Definition, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	common := []pool.Option{pool.WithRegistry(r), pool.WithLogger(logger)}

	groups := make(map[string]*pool.Group, len(c.Groups))
	for _, g := range c.Groups {
		opts := slices.Clone(common)
		if g.Hasher != "" {
			opts = append(opts, pool.WithHashers(g.Hasher))
		}
		groups[g.Name] = pool.NewGroup(g.Name, g.Shared, opts...)
	}

	defs := make(map[string]*pool.Definition, len(c.Pools))
	err := func() (err error) {
		// Define panics on registry collisions.
		defer func() {
			if v := recover(); v != nil {
				err = fmt.Errorf("config: %v", v)
			}
		}()
		for _, p := range c.Pools {
			if p.Group != "" {
				g := groups[p.Group]
				if g.Shared() {
					defs[p.Name] = g.Define(p.Name)
				} else {
					defs[p.Name] = g.Define(p.Name, p.options()...)
				}
				continue
			}
			defs[p.Name] = pool.Define(p.Name, append(slices.Clone(common), p.options()...)...)
		}
		return nil
	}()
	if err != nil {
		return nil, err
	}
	return defs, nil
}
