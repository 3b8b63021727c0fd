// Package schema implements the named, hashed row definitions shared by
// object cells.
//
// A schema has two column orders. The logical order is the order columns were
// added and is only used for presentation; rows are always accessed by column
// name. The serialized order is ascending by column name hash and fixes the
// byte offset of every column:
//
//	Point{x: Float, y: Float}
//	  x @ 0 (4 bytes), y @ 4 (4 bytes), row size 8, alignment 4
//
// Each column starts at the running offset rounded up to its own alignment,
// and the row size is padded to the strictest column alignment so that rows
// repeated in a table stay aligned.
package schema

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/hash"
	"github.com/arloliu/modkit/notify"
)

// Schema is a named, hashed collection of columns.
//
// A schema may be referenced by many object cells; the document that holds it
// is its owner.
//
// Note: Schema is NOT thread-safe.
type Schema struct {
	notify.Node

	name     string
	nameHash uint32
	hash     uint32
	columns  []*Column

	laidOut    bool
	serialized []*Column
	rowSize    uint32
	alignment  uint32
}

// New creates a schema with the given schema hash and columns.
//
// Use hash.FNV32 of the name when no authored schema hash exists.
func New(name string, schemaHash uint32, columns ...*Column) (*Schema, error) {
	s := &Schema{
		name:     name,
		nameHash: hash.FNV32(name),
		hash:     schemaHash,
	}
	for _, c := range columns {
		if err := s.AddColumn(c); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// MustNew is like New but panics on duplicate column names.
func MustNew(name string, schemaHash uint32, columns ...*Column) *Schema {
	s, err := New(name, schemaHash, columns...)
	if err != nil {
		panic(err)
	}

	return s
}

// Restore rebuilds a schema exactly as read from a buffer: stored hashes,
// stored column offsets and stored row size are kept as the current layout.
func Restore(name string, nameHash, schemaHash, rowSize uint32, columns []*Column) *Schema {
	s := &Schema{
		name:     name,
		nameHash: nameHash,
		hash:     schemaHash,
		columns:  columns,
		rowSize:  rowSize,
	}
	for _, c := range columns {
		c.SetOwner(s)
	}

	s.serialized = s.sortedColumns()
	s.alignment = s.maxAlignment()
	s.laidOut = true

	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// NameHash returns the FNV-32 hash of the lowercased name, or the stored
// hash for a schema built by Restore.
func (s *Schema) NameHash() uint32 { return s.nameHash }

// Hash returns the schema hash. It is stored as given and not derived from
// the name or the columns.
func (s *Schema) Hash() uint32 { return s.hash }

// SetName renames the schema and rehashes the name.
func (s *Schema) SetName(name string) {
	s.name = name
	s.nameHash = hash.FNV32(name)
	s.MarkDirty()
}

// SetHash replaces the schema hash.
func (s *Schema) SetHash(schemaHash uint32) {
	s.hash = schemaHash
	s.MarkDirty()
}

// MarkDirty invalidates the cached layout and notifies the owner.
func (s *Schema) MarkDirty() {
	s.laidOut = false
	s.Node.MarkDirty()
}

// Columns returns the columns in logical order.
func (s *Schema) Columns() []*Column {
	return slices.Clone(s.columns)
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Column returns the column with the given name.
func (s *Schema) Column(name string) (*Column, bool) {
	for _, c := range s.columns {
		if c.name == name {
			return c, true
		}
	}

	return nil, false
}

// AddColumn appends a column. Column names must be unique.
func (s *Schema) AddColumn(c *Column) error {
	if c == nil {
		return fmt.Errorf("%w: nil column", errs.ErrInvalidColumn)
	}
	if _, exists := s.Column(c.name); exists {
		return fmt.Errorf("%w: column %q already exists in schema %q", errs.ErrInvalidColumn, c.name, s.name)
	}

	c.SetOwner(s)
	s.columns = append(s.columns, c)
	s.MarkDirty()

	return nil
}

// RemoveColumn removes the named column and reports whether it existed.
func (s *Schema) RemoveColumn(name string) bool {
	idx := slices.IndexFunc(s.columns, func(c *Column) bool { return c.name == name })
	if idx < 0 {
		return false
	}

	s.columns[idx].SetOwner(nil)
	s.columns = slices.Delete(s.columns, idx, idx+1)
	s.MarkDirty()

	return true
}

func (s *Schema) sortedColumns() []*Column {
	sorted := slices.Clone(s.columns)
	slices.SortStableFunc(sorted, func(a, b *Column) int {
		if c := cmp.Compare(a.nameHash, b.nameHash); c != 0 {
			return c
		}

		return cmp.Compare(a.name, b.name)
	})

	return sorted
}

func (s *Schema) maxAlignment() uint32 {
	maxAlign := uint32(1)
	for _, c := range s.columns {
		if align, err := format.Alignment(c.dataType); err == nil && align > maxAlign {
			maxAlign = align
		}
	}

	return maxAlign
}

// Layout derives the serialized column order, every column offset, the row
// size and the row alignment from scratch.
//
// Returns:
//   - error: ErrUnsupportedType if a column has a type without an encoding
func (s *Schema) Layout() error {
	sorted := s.sortedColumns()

	running := 0
	maxAlign := uint32(1)
	for _, c := range sorted {
		width, err := format.SlotWidth(c.dataType)
		if err != nil {
			return fmt.Errorf("schema %q column %q: %w", s.name, c.name, err)
		}
		align, _ := format.Alignment(c.dataType)

		offset := format.AlignUp(running, align)
		c.offset = uint32(offset) //nolint: gosec
		running = offset + int(width)
		maxAlign = max(maxAlign, align)
	}

	s.serialized = sorted
	s.rowSize = uint32(format.AlignUp(running, maxAlign)) //nolint: gosec
	s.alignment = maxAlign
	s.laidOut = true

	return nil
}

func (s *Schema) ensureLayout() error {
	if s.laidOut {
		return nil
	}

	return s.Layout()
}

// SerializedColumns returns the columns in ascending name hash order, with
// offsets from the current layout.
func (s *Schema) SerializedColumns() ([]*Column, error) {
	if err := s.ensureLayout(); err != nil {
		return nil, err
	}

	return slices.Clone(s.serialized), nil
}

// RowSize returns the byte size of one row including trailing padding.
func (s *Schema) RowSize() (uint32, error) {
	if err := s.ensureLayout(); err != nil {
		return 0, err
	}

	return s.rowSize, nil
}

// Alignment returns the alignment of the strictest column.
func (s *Schema) Alignment() (uint32, error) {
	if err := s.ensureLayout(); err != nil {
		return 0, err
	}

	return s.alignment, nil
}

// Validate checks every column definition.
//
// Returns:
//   - error: ErrInvalidColumn for unsupported types or flags that do not fit
//     16 bits, ErrDuplicateColumn when two columns share a name hash
func (s *Schema) Validate() error {
	seen := make(map[uint32]string, len(s.columns))
	for _, c := range s.columns {
		if !c.dataType.Valid() {
			return fmt.Errorf("%w: schema %q column %q has type %s", errs.ErrInvalidColumn, s.name, c.name, c.dataType)
		}
		if c.flags > math.MaxUint16 {
			return fmt.Errorf("%w: schema %q column %q flags 0x%X exceed 16 bits", errs.ErrInvalidColumn, s.name, c.name, c.flags)
		}
		if other, dup := seen[c.nameHash]; dup {
			return fmt.Errorf("%w: schema %q columns %q and %q hash to 0x%08X", errs.ErrDuplicateColumn, s.name, other, c.name, c.nameHash)
		}
		seen[c.nameHash] = c.name
	}

	return nil
}

// Equals compares names, hashes and columns. Column order is ignored because
// rows are accessed by name.
func (s *Schema) Equals(other *Schema) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	if s.name != other.name || s.nameHash != other.nameHash || s.hash != other.hash {
		return false
	}
	if len(s.columns) != len(other.columns) {
		return false
	}
	for _, c := range s.columns {
		oc, ok := other.Column(c.name)
		if !ok || !c.Equals(oc) {
			return false
		}
	}

	return true
}

// Clone returns a detached deep copy of the schema.
func (s *Schema) Clone() *Schema {
	columns := make([]*Column, len(s.columns))
	for i, c := range s.columns {
		columns[i] = c.Clone()
	}

	clone := &Schema{
		name:     s.name,
		nameHash: s.nameHash,
		hash:     s.hash,
		columns:  columns,
	}
	for _, c := range columns {
		c.SetOwner(clone)
	}

	return clone
}

// String returns the name and schema hash, as in "Point(0x0F0F0F0F)".
func (s *Schema) String() string {
	return fmt.Sprintf("%s(0x%08X)", s.name, s.hash)
}
