package schema

import (
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/hash"
	"github.com/arloliu/modkit/notify"
)

// Column is a named, typed, flagged slot of a schema row.
//
// The byte offset is derived by the owning schema's layout; it is never
// authored directly.
type Column struct {
	notify.Node

	name     string
	nameHash uint32
	dataType format.DataType
	flags    uint32
	offset   uint32
}

// NewColumn creates a column and hashes its name.
func NewColumn(name string, dataType format.DataType, flags uint32) *Column {
	return &Column{
		name:     name,
		nameHash: hash.FNV32(name),
		dataType: dataType,
		flags:    flags,
	}
}

// RestoreColumn creates a column exactly as read from a buffer, keeping the
// stored name hash and byte offset.
func RestoreColumn(name string, nameHash uint32, dataType format.DataType, flags uint32, offset uint32) *Column {
	return &Column{
		name:     name,
		nameHash: nameHash,
		dataType: dataType,
		flags:    flags,
		offset:   offset,
	}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// NameHash returns the hash written in the column record. It is the FNV-32
// hash of the lowercased name unless the column was restored from a buffer.
func (c *Column) NameHash() uint32 { return c.nameHash }

// DataType returns the type of the column's cells.
func (c *Column) DataType() format.DataType { return c.dataType }

// Flags returns the column flags, written through unchanged.
func (c *Column) Flags() uint32 { return c.flags }

// Offset returns the byte offset of the column inside a row, as of the last
// layout of the owning schema.
func (c *Column) Offset() uint32 { return c.offset }

// SetName renames the column and rehashes the name.
func (c *Column) SetName(name string) {
	c.name = name
	c.nameHash = hash.FNV32(name)
	c.MarkDirty()
}

// SetDataType changes the declared type of the column.
func (c *Column) SetDataType(dataType format.DataType) {
	c.dataType = dataType
	c.MarkDirty()
}

// SetFlags replaces the column flags.
func (c *Column) SetFlags(flags uint32) {
	c.flags = flags
	c.MarkDirty()
}

// Clone returns a detached copy of the column.
func (c *Column) Clone() *Column {
	return &Column{
		name:     c.name,
		nameHash: c.nameHash,
		dataType: c.dataType,
		flags:    c.flags,
		offset:   c.offset,
	}
}

// Equals compares name, name hash, type and flags. Offsets are derived and
// not compared.
func (c *Column) Equals(other *Column) bool {
	if c == nil || other == nil {
		return c == other
	}

	return c.name == other.name &&
		c.nameHash == other.nameHash &&
		c.dataType == other.dataType &&
		c.flags == other.flags
}
