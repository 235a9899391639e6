// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package intern implements a concurrent bidirectional string interning map.
//
// A Map assigns small, stable, non-zero identifiers to text:
//   - Equal text interned sequentially always yields the same identifier
//   - An identifier resolves to its text for the remainder of the process
//   - Identifiers are never reused and never zero
//
// Interned text is copied into an append-only arena and never freed, so
// resolved strings remain valid without holding any lock.
//
// Lookups take a shared read lock. New text is allocated an identifier from
// an atomic counter that is independent of the table lock, and is then
// inserted under the exclusive lock without re-checking the tables. Two
// goroutines racing to intern the same new text may therefore both succeed
// with different identifiers. Every identifier still resolves to the text
// that produced it; the duplicate only costs storage.
//
// The tables are github.com/cockroachdb/swiss maps. On Go 1.24 and later the
// package must be built with -tags untested_go_version.
package intern

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/swiss"

	"github.com/open-policy-agent/symtab/internal/arena"
	"github.com/open-policy-agent/symtab/logging"
)

// ID is an interned string identifier. The zero ID is never allocated.
type ID uint32

// MaxID is the largest identifier a map can allocate.
const MaxID = ID(math.MaxUint32)

// Valid returns true if id is non-zero.
func (id ID) Valid() bool {
	return id != 0
}

// Entry is a fixed identifier/text pair used to pre-seed a map.
type Entry struct {
	ID   ID
	Text string
}

// Map is a concurrent string interning map.
type Map struct {
	name string

	// counter is the next identifier to allocate. It wraps to zero after
	// MaxID has been handed out, at which point the map is exhausted.
	counter atomic.Uint32

	// mu guards forward and backward.
	mu       sync.RWMutex
	forward  *swiss.Map[string, ID]
	backward *swiss.Map[ID, string]

	arena  *arena.Arena
	logger logging.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a new interning map.
func New(opts ...Opt) (*Map, error) {
	o := options{
		initialID: 1,
		logger:    logging.Get(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.initialID == 0 {
		return nil, invalidConfigf("initial identifier must be greater than zero")
	}
	if err := validateSeed(o.seed, o.initialID); err != nil {
		return nil, err
	}

	capacity := max(o.capacity, len(o.seed))

	var fwdOpts []swiss.Option[string, ID]
	if o.forwardHasher != nil {
		fwdOpts = append(fwdOpts, swiss.WithHash[string, ID](o.forwardHasher))
	}
	var bwdOpts []swiss.Option[ID, string]
	if o.backwardHasher != nil {
		bwdOpts = append(bwdOpts, swiss.WithHash[ID, string](o.backwardHasher))
	}

	m := &Map{
		name:     o.name,
		forward:  swiss.New[string, ID](capacity, fwdOpts...),
		backward: swiss.New[ID, string](capacity, bwdOpts...),
		arena:    arena.New(o.chunkSize),
		logger:   o.logger,
	}
	if m.name != "" {
		m.logger = m.logger.WithFields(map[string]any{"pool": m.name})
	}
	m.counter.Store(uint32(o.initialID))

	// The map is not yet visible to any other goroutine, so seeding does not
	// need the lock.
	for _, e := range o.seed {
		m.insertLocked(e.ID, m.arena.Alloc(e.Text))
	}

	m.logger.Debug("Created interning map with %d seeded entries, first dynamic identifier %d.", len(o.seed), o.initialID)

	return m, nil
}

// MustNew is like New but panics on invalid configuration.
func MustNew(opts ...Opt) *Map {
	m, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func validateSeed(seed []Entry, initialID ID) error {
	ids := make(map[ID]struct{}, len(seed))
	texts := make(map[string]struct{}, len(seed))
	for _, e := range seed {
		if e.ID == 0 {
			return invalidConfigf("seeded identifier for %q must be greater than zero", e.Text)
		}
		if e.ID >= initialID {
			return invalidConfigf("seeded identifier %d for %q collides with dynamic identifiers starting at %d", e.ID, e.Text, initialID)
		}
		if _, ok := ids[e.ID]; ok {
			return invalidConfigf("identifier %d seeded more than once", e.ID)
		}
		if _, ok := texts[e.Text]; ok {
			return invalidConfigf("text %q seeded more than once", e.Text)
		}
		ids[e.ID] = struct{}{}
		texts[e.Text] = struct{}{}
	}
	return nil
}

// Name returns the name the map was created with.
func (m *Map) Name() string {
	return m.name
}

// Internalize returns the identifier for v, allocating a new one if the
// text has not been interned yet. It panics with an ExhaustedErr if the
// identifier space is used up.
func (m *Map) Internalize(v Internalizer) ID {
	// Borrow may itself resolve text through this map, so it must run
	// before the read lock is taken.
	key := v.Borrow()

	m.mu.RLock()
	id, ok := m.forward.Get(key)
	m.mu.RUnlock()
	if ok {
		m.hits.Add(1)
		return id
	}

	m.misses.Add(1)

	text := v.Internalize(m.arena)
	id = m.allocID()
	m.insert(id, text)

	return id
}

// Intern interns s. The caller keeps ownership of s.
func (m *Map) Intern(s string) ID {
	return m.Internalize(Owned(s))
}

// InternBytes interns the text in b. b is only copied if the text is new.
func (m *Map) InternBytes(b []byte) ID {
	return m.Internalize(Bytes(b))
}

// allocID advances the counter and returns its previous value.
func (m *Map) allocID() ID {
	for {
		v := m.counter.Load()
		if v == 0 {
			m.logger.Error("Identifier space exhausted after %d identifiers.", uint64(MaxID))
			panic(&Error{
				Code:    ExhaustedErr,
				Message: fmt.Sprintf("interning map %q overflowed", m.name),
			})
		}
		if m.counter.CompareAndSwap(v, v+1) {
			return ID(v)
		}
	}
}

func (m *Map) insert(id ID, text string) {
	m.mu.Lock()
	m.insertLocked(id, text)
	m.mu.Unlock()
}

// insertLocked writes both tables.
// Must be called with m.mu held or before the map is published.
func (m *Map) insertLocked(id ID, text string) {
	m.backward.Put(id, text)
	m.forward.Put(text, id)
}

// Get returns the text for id. It returns false if id was not allocated by
// this map.
func (m *Map) Get(id ID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backward.Get(id)
}

// Lookup returns the identifier for s without interning it.
func (m *Map) Lookup(s string) (ID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.forward.Get(s)
}

// Len returns the number of identifiers stored in the map.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backward.Len()
}

// NextID returns the identifier the next new text will receive. It returns
// zero once the map is exhausted.
func (m *Map) NextID() ID {
	return ID(m.counter.Load())
}

// Range calls f for every entry in identifier order until f returns false.
// f is called without holding the map lock.
func (m *Map) Range(f func(ID, string) bool) {
	m.mu.RLock()
	entries := make([]Entry, 0, m.backward.Len())
	m.backward.All(func(id ID, text string) bool {
		entries = append(entries, Entry{ID: id, Text: text})
		return true
	})
	m.mu.RUnlock()

	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.ID, b.ID)
	})

	for _, e := range entries {
		if !f(e.ID, e.Text) {
			return
		}
	}
}

// Stats is a point-in-time summary of a map.
type Stats struct {
	Name       string `json:"name"`
	Entries    int    `json:"entries"`
	NextID     ID     `json:"next_id"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	ArenaBytes int64  `json:"arena_bytes"`
}

// Stats returns the current statistics of the map.
func (m *Map) Stats() Stats {
	return Stats{
		Name:       m.name,
		Entries:    m.Len(),
		NextID:     m.NextID(),
		Hits:       m.hits.Load(),
		Misses:     m.misses.Load(),
		ArenaBytes: m.arena.Bytes(),
	}
}
