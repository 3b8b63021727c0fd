package section

import (
	"github.com/samber/mo"

	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/format"
)

// SchemaEntry is one schema directory entry. It is a fixed size of 24 bytes;
// its columns live elsewhere, at ColumnPos.
type SchemaEntry struct {
	// Offset: 0, Size: 4 bytes (relative pointer)
	NamePos mo.Option[int]
	// Offset: 4, Size: 4 bytes
	NameHash uint32
	// Offset: 8, Size: 4 bytes
	SchemaHash uint32
	// Offset: 12, Size: 4 bytes
	SchemaSize uint32
	// Offset: 16, Size: 4 bytes (relative pointer)
	ColumnPos int
	// Offset: 20, Size: 4 bytes
	ColumnCount uint32
}

// ColumnRecord is one column of a schema. It is a fixed size of 20 bytes.
type ColumnRecord struct {
	// Offset: 0, Size: 4 bytes (relative pointer)
	NamePos mo.Option[int]
	// Offset: 4, Size: 4 bytes
	NameHash uint32
	// Offset: 8, Size: 2 bytes
	DataType format.DataType
	// Offset: 10, Size: 2 bytes
	Flags uint16
	// Offset: 12, Size: 4 bytes
	Offset uint32
	// Offset: 16, Size: 4 bytes (reserved, always null when written)
	SchemaPos mo.Option[int]
}

// ReadSchemaEntry reads one schema directory entry at the reader's position.
func ReadSchemaEntry(r *cursor.Reader) (SchemaEntry, error) {
	var (
		s   SchemaEntry
		err error
	)

	if s.NamePos, err = readPointer(r); err != nil {
		return s, err
	}
	if s.NameHash, err = r.Uint32(); err != nil {
		return s, err
	}
	if s.SchemaHash, err = r.Uint32(); err != nil {
		return s, err
	}
	if s.SchemaSize, err = r.Uint32(); err != nil {
		return s, err
	}
	if s.ColumnPos, _, err = r.RelOffset(); err != nil {
		return s, err
	}
	if s.ColumnCount, err = r.Uint32(); err != nil {
		return s, err
	}

	return s, nil
}

// WriteTo writes the entry at the writer's current position.
func (s SchemaEntry) WriteTo(w *cursor.Writer) error {
	if err := writePointer(w, s.NamePos); err != nil {
		return err
	}
	w.WriteUint32(s.NameHash)
	w.WriteUint32(s.SchemaHash)
	w.WriteUint32(s.SchemaSize)
	if err := w.WriteRelOffset(s.ColumnPos); err != nil {
		return err
	}
	w.WriteUint32(s.ColumnCount)

	return nil
}

// ReadColumnRecord reads one column record at the reader's position.
func ReadColumnRecord(r *cursor.Reader) (ColumnRecord, error) {
	var (
		c   ColumnRecord
		err error
	)

	if c.NamePos, err = readPointer(r); err != nil {
		return c, err
	}
	if c.NameHash, err = r.Uint32(); err != nil {
		return c, err
	}
	dataType, err := r.Uint16()
	if err != nil {
		return c, err
	}
	c.DataType = format.DataType(dataType)
	if c.Flags, err = r.Uint16(); err != nil {
		return c, err
	}
	if c.Offset, err = r.Uint32(); err != nil {
		return c, err
	}
	if c.SchemaPos, err = readPointer(r); err != nil {
		return c, err
	}

	return c, nil
}

// WriteTo writes the record at the writer's current position.
func (c ColumnRecord) WriteTo(w *cursor.Writer) error {
	if err := writePointer(w, c.NamePos); err != nil {
		return err
	}
	w.WriteUint32(c.NameHash)
	w.WriteUint16(uint16(c.DataType))
	w.WriteUint16(c.Flags)
	w.WriteUint32(c.Offset)

	return writePointer(w, c.SchemaPos)
}
