// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package symbol provides typed handles to interned strings.
//
// A Symbol[P] is a copyable identifier whose namespace P is part of its
// type, so symbols of different pools cannot be mixed. Equality compares
// identifiers; ordering and hashing use the resolved text.
package symbol

import (
	"hash/maphash"
	"strconv"
	"strings"

	"github.com/open-policy-agent/symtab/intern"
	"github.com/open-policy-agent/symtab/pool"
)

// Symbol is an interned string of namespace P. The zero value is not a valid
// symbol.
type Symbol[P pool.Pool] struct {
	id intern.ID
}

func poolMap[P pool.Pool]() *intern.Map {
	var p P
	return p.Map()
}

// Intern returns the symbol for s in namespace P.
func Intern[P pool.Pool](s string) Symbol[P] {
	return Symbol[P]{id: poolMap[P]().Intern(s)}
}

// InternBytes returns the symbol for the text in b. b is only copied when
// the text is new to the namespace.
func InternBytes[P pool.Pool](b []byte) Symbol[P] {
	return Symbol[P]{id: poolMap[P]().InternBytes(b)}
}

// From re-interns a symbol of namespace Q in namespace P. The text storage
// of q is reused rather than copied.
func From[P, Q pool.Pool](q Symbol[Q]) Symbol[P] {
	return Symbol[P]{id: poolMap[P]().Internalize(q)}
}

// Reserved returns the symbol for a reserved identifier without checking
// the map. It is meant for package-level constants declared with
// pool.WithConstants:
//
//	var Foo = symbol.Reserved[Keywords](keywords.MustID("Foo"))
func Reserved[P pool.Pool](id intern.ID) Symbol[P] {
	return Symbol[P]{id: id}
}

// ID returns the identifier of s.
func (s Symbol[P]) ID() intern.ID {
	return s.id
}

// IsZero returns true for the zero value.
func (s Symbol[P]) IsZero() bool {
	return s.id == 0
}

// String returns the interned text. It panics if s does not belong to P's
// map, which can only happen for fabricated symbols.
func (s Symbol[P]) String() string {
	text, ok := poolMap[P]().Get(s.id)
	if !ok {
		panic("symbol: identifier " + strconv.FormatUint(uint64(s.id), 10) + " is not valid for this pool (should not happen)")
	}
	return text
}

// GoString formats s as Symbol("text").
func (s Symbol[P]) GoString() string {
	return "Symbol(" + strconv.Quote(s.String()) + ")"
}

// Equal reports whether s and o are the same symbol.
func (s Symbol[P]) Equal(o Symbol[P]) bool {
	return s.id == o.id
}

// EqualString reports whether s resolves to text.
func (s Symbol[P]) EqualString(text string) bool {
	return s.String() == text
}

// Compare orders symbols by their text, not by identifier. Two goroutines
// racing to intern the same new text can obtain distinct identifiers for
// it; such symbols compare as 0 here while Equal reports false.
func (s Symbol[P]) Compare(o Symbol[P]) int {
	if s.id == o.id {
		return 0
	}
	return strings.Compare(s.String(), o.String())
}

// Less reports whether s sorts before o.
func (s Symbol[P]) Less(o Symbol[P]) bool {
	return s.Compare(o) < 0
}

// Hash hashes the text of s, so it agrees with hashing the plain string.
func (s Symbol[P]) Hash(seed maphash.Seed) uint64 {
	return maphash.String(seed, s.String())
}

// Borrow implements intern.Internalizer.
func (s Symbol[P]) Borrow() string {
	return s.String()
}

// Internalize implements intern.Internalizer. The text already lives for the
// process lifetime, so it is returned without copying.
func (s Symbol[P]) Internalize(intern.Allocator) string {
	return s.String()
}

// MarshalText implements encoding.TextMarshaler.
func (s Symbol[P]) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler by interning text.
func (s *Symbol[P]) UnmarshalText(text []byte) error {
	*s = InternBytes[P](text)
	return nil
}

// Compare orders a and b by text. It is suitable for slices.SortFunc.
func Compare[P pool.Pool](a, b Symbol[P]) int {
	return a.Compare(b)
}
