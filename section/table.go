package section

import (
	"github.com/samber/mo"

	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/format"
)

// TableInfo is one table directory entry. It is a fixed size of 28 bytes.
//
// A table is a run of RowCount elements of RowSize bytes each. Object tables
// carry a schema and hold rows; every other table holds inline values of
// DataType. Named tables are the document's instances.
type TableInfo struct {
	// NamePos is the absolute position of the table name, absent for unnamed tables.
	//
	// Offset: 0, Size: 4 bytes (nullable relative pointer)
	NamePos mo.Option[int]

	// NameHash is the FNV-32 hash of the table name, 0 for unnamed tables.
	//
	// Offset: 4, Size: 4 bytes
	NameHash uint32

	// SchemaPos is the absolute position of the schema entry, absent for raw tables.
	//
	// Offset: 8, Size: 4 bytes (nullable relative pointer)
	SchemaPos mo.Option[int]

	// DataType is the element type of the table.
	//
	// Offset: 12, Size: 4 bytes
	DataType format.DataType

	// RowSize is the byte size of one element.
	//
	// Offset: 16, Size: 4 bytes
	RowSize uint32

	// RowPos is the absolute position of the first element.
	//
	// Offset: 20, Size: 4 bytes (relative pointer)
	RowPos int

	// RowCount is the number of elements.
	//
	// Offset: 24, Size: 4 bytes
	RowCount uint32
}

// End returns the absolute position just past the last element.
func (t TableInfo) End() int {
	return t.RowPos + int(t.RowSize)*int(t.RowCount)
}

// Contains reports whether pos falls inside the table's element range.
func (t TableInfo) Contains(pos int) bool {
	return pos >= t.RowPos && pos < t.End()
}

// RowIndex returns the element index of pos, which must be inside the table.
func (t TableInfo) RowIndex(pos int) int {
	if t.RowSize == 0 {
		return 0
	}

	return (pos - t.RowPos) / int(t.RowSize)
}

// ReadTableInfo reads one table directory entry at the reader's position.
func ReadTableInfo(r *cursor.Reader) (TableInfo, error) {
	var (
		t   TableInfo
		err error
	)

	if t.NamePos, err = readPointer(r); err != nil {
		return t, err
	}
	if t.NameHash, err = r.Uint32(); err != nil {
		return t, err
	}
	if t.SchemaPos, err = readPointer(r); err != nil {
		return t, err
	}
	dataType, err := r.Uint32()
	if err != nil {
		return t, err
	}
	t.DataType = format.DataType(dataType) //nolint: gosec
	if t.RowSize, err = r.Uint32(); err != nil {
		return t, err
	}
	if t.RowPos, _, err = r.RelOffset(); err != nil {
		return t, err
	}
	if t.RowCount, err = r.Uint32(); err != nil {
		return t, err
	}

	return t, nil
}

// WriteTo writes the entry at the writer's current position.
func (t TableInfo) WriteTo(w *cursor.Writer) error {
	if err := writePointer(w, t.NamePos); err != nil {
		return err
	}
	w.WriteUint32(t.NameHash)
	if err := writePointer(w, t.SchemaPos); err != nil {
		return err
	}
	w.WriteUint32(uint32(t.DataType))
	w.WriteUint32(t.RowSize)
	if err := w.WriteRelOffset(t.RowPos); err != nil {
		return err
	}
	w.WriteUint32(t.RowCount)

	return nil
}
