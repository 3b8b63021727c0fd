// Package hash provides the name and buffer hashes used across modkit.
package hash

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/segmentio/fasthash/fnv1"
)

// FNV32 computes the 32-bit FNV-1 hash of name after lowercasing it with
// strings.ToLower, which folds Unicode letters as well as ASCII.
//
// Schema, column and table names are hashed this way, so "Origin" and
// "origin" share a hash.
func FNV32(name string) uint32 {
	return fnv1.HashString32(strings.ToLower(name))
}

// FNV32Exact computes the 32-bit FNV-1 hash of name without case folding.
// String table keys are derived this way.
func FNV32Exact(name string) uint32 {
	return fnv1.HashString32(name)
}

// Fingerprint computes the xxHash64 of an encoded buffer.
func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}
