// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"sync"
)

const (
	scanBufferSize = 64 << 10
	maxTokenSize   = 1 << 20
)

// scanBufferPool provides recycled scanner buffers, one per file being
// interned. Buffers grown past scanBufferSize by long tokens are dropped.
var scanBufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, scanBufferSize)
		return &buf
	},
}

// getScanBuffer returns a zero-length buffer from the pool.
// Caller must call putScanBuffer when done.
func getScanBuffer() *[]byte {
	buf := scanBufferPool.Get().(*[]byte)
	*buf = (*buf)[:0]
	return buf
}

// putScanBuffer returns a buffer to the pool for reuse.
func putScanBuffer(buf *[]byte) {
	if buf == nil || cap(*buf) > scanBufferSize {
		return
	}
	*buf = (*buf)[:0]
	scanBufferPool.Put(buf)
}
