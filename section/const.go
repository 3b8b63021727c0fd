package section

import (
	"github.com/samber/mo"

	"github.com/arloliu/modkit/cursor"
)

// Magic is the four byte tag at the start of every SimData buffer.
const Magic = "DATA"

// Supported format versions.
const (
	Version100 uint32 = 0x100 // Version100 has no unused header field.
	Version101 uint32 = 0x101 // Version101 adds the 32-bit unused header field.
)

// offset and section sizes in the SimData buffer
const (
	HeaderSize100   = 24 // header size for Version100
	HeaderSize101   = 28 // header size for Version101
	TableInfoSize   = 28 // fixed table directory entry size
	SchemaEntrySize = 24 // fixed schema directory entry size
	ColumnSize      = 20 // fixed column record size
	TableAlignment  = 16 // minimum alignment of every section and table
)

// SupportedVersion reports whether v is one of the two known versions.
func SupportedVersion(v uint32) bool {
	return v == Version100 || v == Version101
}

// HeaderSize returns the header size for version v.
func HeaderSize(v uint32) int {
	if v >= Version101 {
		return HeaderSize101
	}

	return HeaderSize100
}

// readPointer reads a nullable self-relative pointer as an absolute position.
func readPointer(r *cursor.Reader) (mo.Option[int], error) {
	target, ok, err := r.RelOffset()
	if err != nil {
		return mo.None[int](), err
	}
	if !ok {
		return mo.None[int](), nil
	}

	return mo.Some(target), nil
}

// writePointer writes a nullable absolute position as a self-relative pointer.
func writePointer(w *cursor.Writer, p mo.Option[int]) error {
	target, ok := p.Get()
	if !ok {
		w.WriteNullOffset()
		return nil
	}

	return w.WriteRelOffset(target)
}
