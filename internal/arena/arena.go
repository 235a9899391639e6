// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package arena implements append-only storage for interned text.
//
// Every string handed to Alloc is copied into a large byte chunk and the
// returned string aliases that chunk. Chunks are never released, so the
// returned strings stay valid for the remainder of the process without the
// caller holding any lock. This trades memory for stable references:
//   - Many small strings share one allocation
//   - The garbage collector scans a handful of chunks instead of many headers
//   - Nothing is ever reclaimed, even if the owning map becomes unreachable
package arena

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

const (
	// DefaultChunkSize is the size of each arena chunk in bytes.
	DefaultChunkSize = 64 << 10

	// MinChunkSize is the smallest chunk size accepted by New.
	MinChunkSize = 1 << 10
)

// Arena is a chunked, never-freed byte arena for strings.
type Arena struct {
	// chunks holds every chunk ever allocated, including dedicated chunks
	// for oversized strings. Keeping the slices referenced here is what makes
	// the memory process-lifetime.
	chunks [][]byte

	// cur is the chunk currently being filled.
	cur []byte

	chunkSize int

	// mu protects chunks and cur.
	mu sync.Mutex

	// used is the number of bytes handed out so far.
	used atomic.Int64

	// reserved is the number of bytes allocated for chunks.
	reserved atomic.Int64
}

// New creates a new arena. A chunkSize below MinChunkSize is raised to
// MinChunkSize; zero selects DefaultChunkSize.
func New(chunkSize int) *Arena {
	switch {
	case chunkSize == 0:
		chunkSize = DefaultChunkSize
	case chunkSize < MinChunkSize:
		chunkSize = MinChunkSize
	}
	return &Arena{chunkSize: chunkSize}
}

// Alloc copies s into the arena and returns a string backed by arena memory.
// The empty string is returned as is.
func (a *Arena) Alloc(s string) string {
	n := len(s)
	if n == 0 {
		return ""
	}

	a.used.Add(int64(n))

	// Strings larger than a quarter chunk get their own allocation so they
	// don't waste the tail of the current chunk.
	if n > a.chunkSize/4 {
		buf := make([]byte, n)
		copy(buf, s)

		a.mu.Lock()
		a.chunks = append(a.chunks, buf)
		a.mu.Unlock()

		a.reserved.Add(int64(n))
		return unsafe.String(unsafe.SliceData(buf), n)
	}

	a.mu.Lock()
	if cap(a.cur)-len(a.cur) < n {
		a.extend()
	}
	off := len(a.cur)
	a.cur = append(a.cur, s...)
	p := unsafe.SliceData(a.cur[off:])
	a.mu.Unlock()

	return unsafe.String(p, n)
}

// extend starts a new chunk.
// Must be called with a.mu held.
func (a *Arena) extend() {
	a.cur = make([]byte, 0, a.chunkSize)
	a.chunks = append(a.chunks, a.cur)
	a.reserved.Add(int64(a.chunkSize))
}

// Bytes returns the number of bytes of text stored in the arena.
func (a *Arena) Bytes() int64 {
	return a.used.Load()
}

// Reserved returns the number of bytes allocated for chunks.
func (a *Arena) Reserved() int64 {
	return a.reserved.Load()
}

// Chunks returns the number of chunks allocated so far.
func (a *Arena) Chunks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.chunks)
}
