// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package intern

import "unsafe"

// Allocator produces process-lifetime copies of text.
type Allocator interface {
	Alloc(s string) string
}

// Internalizer is a value that can be interned.
//
// Borrow is used for the lookup and must not copy. Internalize is only
// called when the text is not yet interned and must return storage that is
// never mutated for the remainder of the process. Values that already hold
// such storage (for example a resolved symbol) return it without calling the
// allocator, so it is shared between maps instead of copied.
type Internalizer interface {
	Borrow() string
	Internalize(Allocator) string
}

// Owned wraps a string that the caller may keep using. It is copied into the
// map's storage when interned.
type Owned string

// Borrow returns the string.
func (s Owned) Borrow() string { return string(s) }

// Internalize copies s into the allocator.
func (s Owned) Internalize(a Allocator) string { return a.Alloc(string(s)) }

// Bytes wraps a byte slice. Lookups do not copy the slice; it is only copied
// when the text is new.
type Bytes []byte

// Borrow returns a string aliasing the byte slice. The result must not
// outlive the call it is passed to.
func (b Bytes) Borrow() string { return unsafe.String(unsafe.SliceData(b), len(b)) }

// Internalize copies b into the allocator.
func (b Bytes) Internalize(a Allocator) string { return a.Alloc(b.Borrow()) }

// Static wraps a string that is already immutable for the process lifetime,
// such as a string literal or text resolved from another map. It is stored
// without copying.
type Static string

// Borrow returns the string.
func (s Static) Borrow() string { return string(s) }

// Internalize returns s unchanged.
func (s Static) Internalize(Allocator) string { return string(s) }
