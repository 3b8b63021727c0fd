// Package modkit reads, edits and writes the binary resources of a life-sim
// game's content packages.
//
// The central format is SimData: a self-describing binary container holding
// typed schemas and named object instances that reference each other through
// self-relative pointers. modkit decodes such a buffer into an editable
// Document tree and encodes it back, byte-identical when nothing changed.
//
// # Core Features
//
//   - Complete SimData type catalog: integers, floats, strings, hashed
//     strings, resource and localization keys, objects, vectors, variants
//   - Pointer-chasing decoder with strict, recovery and tolerant modes
//   - Deterministic layout-then-emit encoder that never patches bytes
//   - Change tracking from any cell up to its document
//   - String tables, ZLIB and friends, archive entry wrappers
//
// # Basic Usage
//
// Decoding a buffer:
//
//	doc, err := modkit.Decode(data)
//	if err != nil {
//	    return err
//	}
//	buff, _ := doc.Instance("buff_Happy")
//	duration, _ := buff.Get("duration")
//
// Building a document:
//
//	point := schema.MustNew("Point", 0x1234,
//	    schema.NewColumn("x", format.TypeFloat, 0),
//	    schema.NewColumn("y", format.TypeFloat, 0),
//	)
//	doc := modkit.NewDocument()
//	doc.AddInstance("Origin", cell.NewObject(point, map[string]cell.Cell{
//	    "x": cell.NewNumber(format.TypeFloat, 0),
//	    "y": cell.NewNumber(format.TypeFloat, 0),
//	}))
//	data, err := modkit.Encode(doc)
//
// # Package Structure
//
// This package provides top-level wrappers for the most common calls. The
// simdata, cell and schema packages hold the document model, resource and
// stbl the archive-facing pieces, compress the codecs.
package modkit

import (
	"github.com/arloliu/modkit/internal/hash"
	"github.com/arloliu/modkit/resource"
	"github.com/arloliu/modkit/simdata"
)

// Decode parses a SimData buffer.
//
// Available options:
//   - simdata.WithRecovery(): accept a bad magic tag or version
//   - simdata.WithTolerant(): skip instances with unresolvable pointers
//   - simdata.WithTableIndex(false): use a linear table scan
//   - simdata.WithDecoderLogger(logger)
func Decode(data []byte, opts ...simdata.DecoderOption) (*simdata.Document, error) {
	return simdata.Decode(data, opts...)
}

// Encode serializes a document. The output is deterministic.
//
// Available options:
//   - simdata.WithValidation(): validate the whole document first
//   - simdata.WithStrictHashes(): fail on name hash collisions
//   - simdata.WithEncoderLogger(logger)
func Encode(doc *simdata.Document, opts ...simdata.EncoderOption) ([]byte, error) {
	return simdata.Encode(doc, opts...)
}

// NewDocument creates an empty document, Version101 unless
// simdata.WithVersion says otherwise.
func NewDocument(opts ...simdata.DocumentOption) *simdata.Document {
	return simdata.NewDocument(opts...)
}

// Hash returns the 32-bit FNV-1 hash of a schema, column or instance name,
// as stored next to every name in a SimData buffer.
//
// Example:
//
//	modkit.Hash("Origin") == modkit.Hash("origin") // true
func Hash(name string) uint32 {
	return hash.FNV32(name)
}

// LoadResource decompresses and decodes a SimData archive entry.
func LoadResource(entry resource.Entry, opts ...resource.Option) (*resource.SimData, error) {
	return resource.LoadSimData(entry, opts...)
}
