package cell

import (
	"fmt"
	"maps"
	"slices"

	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/notify"
	"github.com/arloliu/modkit/schema"
)

// ObjectCell is one schema row: a map from column name to cell.
//
// The schema is referenced, not owned; many objects may share one schema.
// A valid row has exactly one cell per column, typed as the column.
type ObjectCell struct {
	notify.Node
	schema *schema.Schema
	row    map[string]Cell
}

// NewObject creates an object cell and takes ownership of the row cells.
func NewObject(s *schema.Schema, row map[string]Cell) *ObjectCell {
	o := &ObjectCell{
		schema: s,
		row:    make(map[string]Cell, len(row)),
	}
	for name, c := range row {
		if c == nil {
			continue
		}
		c.SetOwner(o)
		o.row[name] = c
	}

	return o
}

func (o *ObjectCell) sealed() {}

// DataType always returns format.TypeObject.
func (o *ObjectCell) DataType() format.DataType { return format.TypeObject }

// Schema returns the schema the object's row follows.
func (o *ObjectCell) Schema() *schema.Schema { return o.schema }

// SetSchema rebinds the object to s. The row is left as is.
func (o *ObjectCell) SetSchema(s *schema.Schema) {
	o.schema = s
	o.MarkDirty()
}

// Get returns the cell stored under the column name.
func (o *ObjectCell) Get(name string) (Cell, bool) {
	c, ok := o.row[name]
	return c, ok
}

// Set stores c under the column name and takes ownership of it.
func (o *ObjectCell) Set(name string, c Cell) {
	if prev, ok := o.row[name]; ok && prev != c {
		prev.SetOwner(nil)
	}
	c.SetOwner(o)
	o.row[name] = c
	o.MarkDirty()
}

// Delete removes the cell stored under the column name.
func (o *ObjectCell) Delete(name string) bool {
	c, ok := o.row[name]
	if !ok {
		return false
	}
	c.SetOwner(nil)
	delete(o.row, name)
	o.MarkDirty()

	return true
}

// Len returns the number of row entries.
func (o *ObjectCell) Len() int { return len(o.row) }

// Names returns the row entry names sorted.
func (o *ObjectCell) Names() []string {
	return slices.Sorted(maps.Keys(o.row))
}

// Row returns a shallow copy of the row.
func (o *ObjectCell) Row() map[string]Cell {
	return maps.Clone(o.row)
}

// Encode writes the pointer to the row this object is stored at.
func (o *ObjectCell) Encode(w *cursor.Writer, opts EncodeOptions) error {
	return encodePointer(o, w, opts)
}

// Validate checks the schema, then requires exactly one cell per column,
// typed as the column and, unless WithIgnoreOwner is given, owned by o.
func (o *ObjectCell) Validate(opts ...ValidateOption) error {
	cfg := newValidateConfig(opts)

	if o.schema == nil {
		return errs.ErrMissingSchema
	}
	if err := o.schema.Validate(); err != nil {
		return err
	}
	if len(o.row) != o.schema.Len() {
		return fmt.Errorf("%w: schema %q has %d columns, row has %d entries",
			errs.ErrRowArity, o.schema.Name(), o.schema.Len(), len(o.row))
	}

	for _, col := range o.schema.Columns() {
		c, ok := o.row[col.Name()]
		if !ok {
			return fmt.Errorf("%w: schema %q column %q has no cell", errs.ErrRowArity, o.schema.Name(), col.Name())
		}
		if c.DataType() != col.DataType() {
			return fmt.Errorf("%w: schema %q column %q is %s, cell is %s",
				errs.ErrColumnType, o.schema.Name(), col.Name(), col.DataType(), c.DataType())
		}
		if err := checkOwner(o, c, cfg); err != nil {
			return fmt.Errorf("column %q: %w", col.Name(), err)
		}
		if err := c.Validate(cfg.forward()...); err != nil {
			return fmt.Errorf("column %q: %w", col.Name(), err)
		}
	}

	return nil
}

// Clone deep-copies every field. The schema is shared unless WithCloneSchema
// or WithSchemaMapping is given.
func (o *ObjectCell) Clone(opts ...CloneOption) Cell {
	cfg := newCloneConfig(opts)

	row := make(map[string]Cell, len(o.row))
	for name, c := range o.row {
		row[name] = c.Clone(withCloneConfig(cfg))
	}

	return NewObject(cfg.schema(o.schema), row)
}

// Equals compares schema structure and row contents.
func (o *ObjectCell) Equals(other Cell) bool {
	oo, ok := other.(*ObjectCell)
	if !ok {
		return false
	}
	if !o.schema.Equals(oo.schema) || len(o.row) != len(oo.row) {
		return false
	}
	for name, c := range o.row {
		oc, ok := oo.row[name]
		if !ok || !c.Equals(oc) {
			return false
		}
	}

	return true
}
