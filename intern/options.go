// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package intern

import (
	"github.com/open-policy-agent/symtab/logging"
)

// Hasher hashes a table key with the seed chosen by the table.
type Hasher[K comparable] func(key *K, seed uintptr) uintptr

// Opt is a configuration option for a Map.
type Opt func(*options)

type options struct {
	name           string
	initialID      ID
	capacity       int
	chunkSize      int
	seed           []Entry
	forwardHasher  Hasher[string]
	backwardHasher Hasher[ID]
	logger         logging.Logger
}

// WithName sets the name reported in statistics and logs.
func WithName(name string) Opt {
	return func(o *options) {
		o.name = name
	}
}

// WithInitialID sets the first dynamically allocated identifier. It must be
// greater than zero and greater than every seeded identifier.
func WithInitialID(id ID) Opt {
	return func(o *options) {
		o.initialID = id
	}
}

// WithCapacity preallocates room for n entries in each table.
func WithCapacity(n int) Opt {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithChunkSize sets the size of the storage chunks holding interned text.
func WithChunkSize(n int) Opt {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithSeed pre-populates the map with fixed identifier/text pairs. The
// entries are written before the map is returned, bypassing the counter.
func WithSeed(entries ...Entry) Opt {
	return func(o *options) {
		o.seed = append(o.seed, entries...)
	}
}

// WithForwardHasher sets the hash function of the text to identifier table.
// A nil hasher keeps the default random-seeded hash.
func WithForwardHasher(h Hasher[string]) Opt {
	return func(o *options) {
		o.forwardHasher = h
	}
}

// WithBackwardHasher sets the hash function of the identifier to text table.
// A nil hasher keeps the default random-seeded hash.
func WithBackwardHasher(h Hasher[ID]) Opt {
	return func(o *options) {
		o.backwardHasher = h
	}
}

// WithLogger sets the logger used by the map.
func WithLogger(logger logging.Logger) Opt {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
