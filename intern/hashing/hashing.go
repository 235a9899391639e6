// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package hashing provides hash strategies for interning map tables.
//
// A nil hasher selects the table's built-in hash, which is seeded randomly
// per table. The strategies here can be plugged into the forward (text) and
// backward (identifier) tables independently.
package hashing

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"

	"github.com/open-policy-agent/symtab/intern"
)

// Strategy names accepted by ByName.
const (
	Default = "default"
	XXHash  = "xxhash"
	MapHash = "maphash"
)

// Names lists the known strategy names.
var Names = []string{Default, XXHash, MapHash}

var processSeed = maphash.MakeSeed()

// fmix64 is the murmur3 finalizer.
func fmix64(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

// XXHashString hashes text with xxhash64.
func XXHashString(key *string, seed uintptr) uintptr {
	return uintptr(fmix64(xxhash.Sum64String(*key) ^ uint64(seed)))
}

// XXHashID hashes an identifier with xxhash64.
func XXHashID(key *intern.ID, seed uintptr) uintptr {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(*key))
	return uintptr(fmix64(xxhash.Sum64(b[:]) ^ uint64(seed)))
}

// MapHashString hashes text with hash/maphash using a per-process seed.
func MapHashString(key *string, seed uintptr) uintptr {
	return uintptr(fmix64(maphash.String(processSeed, *key) ^ uint64(seed)))
}

// MapHashID hashes an identifier with hash/maphash using a per-process seed.
func MapHashID(key *intern.ID, seed uintptr) uintptr {
	return uintptr(fmix64(maphash.Comparable(processSeed, *key) ^ uint64(seed)))
}

// ByName returns the forward and backward hashers for a strategy name. The
// default strategy returns nil hashers.
func ByName(name string) (intern.Hasher[string], intern.Hasher[intern.ID], error) {
	switch name {
	case "", Default:
		return nil, nil, nil
	case XXHash:
		return XXHashString, XXHashID, nil
	case MapHash:
		return MapHashString, MapHashID, nil
	}
	return nil, nil, fmt.Errorf("unknown hash strategy %q (want one of %v)", name, Names)
}

// Options returns map options selecting the named strategy for both tables.
func Options(name string) ([]intern.Opt, error) {
	fwd, bwd, err := ByName(name)
	if err != nil {
		return nil, err
	}
	return []intern.Opt{intern.WithForwardHasher(fwd), intern.WithBackwardHasher(bwd)}, nil
}
