// Package endian provides the byte order engine used by the binary readers
// and writers.
//
// Every modkit format is little-endian on disk; the big-endian engine exists
// for tooling that inspects foreign dumps.
//
// Thread Safety: engines are stateless and safe for concurrent use.
package endian

import (
	"encoding/binary"
	"math"
)

// EndianEngine combines binary.ByteOrder and binary.AppendByteOrder so one
// value can both patch fixed slots and append to a growing buffer.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// PutInt32 writes a signed 32-bit value.
func PutInt32(engine EndianEngine, b []byte, v int32) {
	engine.PutUint32(b, uint32(v)) //nolint: gosec
}

// Int32 reads a signed 32-bit value.
func Int32(engine EndianEngine, b []byte) int32 {
	return int32(engine.Uint32(b)) //nolint: gosec
}

// PutFloat32 writes an IEEE-754 single precision value.
func PutFloat32(engine EndianEngine, b []byte, v float32) {
	engine.PutUint32(b, math.Float32bits(v))
}

// Float32 reads an IEEE-754 single precision value.
func Float32(engine EndianEngine, b []byte) float32 {
	return math.Float32frombits(engine.Uint32(b))
}
