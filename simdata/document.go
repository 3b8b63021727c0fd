package simdata

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/arloliu/modkit/cell"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/options"
	"github.com/arloliu/modkit/notify"
	"github.com/arloliu/modkit/schema"
	"github.com/arloliu/modkit/section"
)

// Supported format versions.
const (
	Version100 = section.Version100
	Version101 = section.Version101
)

// Instance is a named top-level object.
type Instance struct {
	Name   string
	Object *cell.ObjectCell
}

// Unparsed records a named table the tolerant decoder could not turn into an
// instance.
type Unparsed struct {
	Name  string
	Table section.TableInfo
	Err   error
}

// Document is the unit of SimData serialization: a version, the optional
// unused header field, the schemas and the named instances.
//
// The document is the root owner of its schemas and instances. Any change
// below it marks it dirty and runs the OnChange callbacks; a successful
// Encode clears the flag.
//
// Note: Document is NOT thread-safe. Confine a document to one goroutine or
// lock around it.
type Document struct {
	notify.Flag

	version   uint32
	unused    mo.Option[uint32]
	schemas   []*schema.Schema
	instances []Instance
	unparsed  []Unparsed
}

type documentConfig struct {
	version uint32
	unused  mo.Option[uint32]
}

// DocumentOption configures NewDocument.
type DocumentOption = options.Option[*documentConfig]

// WithVersion sets the document version. Only Version100 and Version101 can
// be encoded.
func WithVersion(v uint32) DocumentOption {
	return options.NoError(func(c *documentConfig) {
		c.version = v
	})
}

// WithUnused sets the unused header field, written by Version101 only.
func WithUnused(v uint32) DocumentOption {
	return options.NoError(func(c *documentConfig) {
		c.unused = mo.Some(v)
	})
}

// NewDocument creates an empty Version101 document.
func NewDocument(opts ...DocumentOption) *Document {
	cfg := &documentConfig{version: Version101}
	_ = options.Apply(cfg, opts...)

	return &Document{
		version: cfg.version,
		unused:  cfg.unused,
	}
}

// Version returns the format version written to the header.
func (d *Document) Version() uint32 { return d.version }

// SetVersion changes the format version. Encode rejects versions it cannot
// write.
func (d *Document) SetVersion(v uint32) {
	d.version = v
	d.MarkDirty()
}

// Unused returns the unused header field. It conventionally correlates with
// a content pack identifier.
func (d *Document) Unused() mo.Option[uint32] { return d.unused }

// SetUnused sets the unused header field. It is only written for version
// 0x101 and later.
func (d *Document) SetUnused(v uint32) {
	d.unused = mo.Some(v)
	d.MarkDirty()
}

// ClearUnused removes the unused header field; version 0x101 then writes 0.
func (d *Document) ClearUnused() {
	d.unused = mo.None[uint32]()
	d.MarkDirty()
}

// AddSchema registers s with the document.
//
// Adding a schema that is already registered, or one equal to it, is a
// no-op. A different schema with the same name is rejected with
// errs.ErrSchemaConflict.
func (d *Document) AddSchema(s *schema.Schema) error {
	if s == nil {
		return errs.ErrMissingSchema
	}
	if s.Name() == "" {
		return fmt.Errorf("%w: schema without name", errs.ErrInvalidName)
	}
	if existing, ok := d.Schema(s.Name()); ok {
		if existing != s && !existing.Equals(s) {
			return fmt.Errorf("%w: schema %q", errs.ErrSchemaConflict, s.Name())
		}

		return nil
	}

	s.SetOwner(d)
	d.schemas = append(d.schemas, s)
	d.MarkDirty()

	return nil
}

// Schema returns the first registered schema with the given name.
func (d *Document) Schema(name string) (*schema.Schema, bool) {
	return lo.Find(d.schemas, func(s *schema.Schema) bool { return s.Name() == name })
}

// Schemas returns the registered schemas.
func (d *Document) Schemas() []*schema.Schema {
	return slices.Clone(d.schemas)
}

// AddInstance adds a named instance and registers its schema.
//
// Returns:
//   - error: ErrInvalidName for an empty name, ErrDuplicateInstance for a
//     name already in use, ErrMissingSchema for an object without schema,
//     ErrSchemaConflict if its schema clashes with a registered one
func (d *Document) AddInstance(name string, obj *cell.ObjectCell) error {
	if name == "" {
		return fmt.Errorf("%w: instance without name", errs.ErrInvalidName)
	}
	if _, exists := d.Instance(name); exists {
		return fmt.Errorf("%w: %q", errs.ErrDuplicateInstance, name)
	}
	if obj == nil || obj.Schema() == nil {
		return fmt.Errorf("%w: instance %q", errs.ErrMissingSchema, name)
	}
	if _, known := d.Schema(obj.Schema().Name()); !known {
		if err := d.AddSchema(obj.Schema()); err != nil {
			return err
		}
	}

	obj.SetOwner(d)
	d.instances = append(d.instances, Instance{Name: name, Object: obj})
	d.MarkDirty()

	return nil
}

// Instance returns the instance with the given name.
func (d *Document) Instance(name string) (*cell.ObjectCell, bool) {
	inst, ok := lo.Find(d.instances, func(i Instance) bool { return i.Name == name })
	return inst.Object, ok
}

// RemoveInstance removes the named instance and reports whether it existed.
func (d *Document) RemoveInstance(name string) bool {
	idx := slices.IndexFunc(d.instances, func(i Instance) bool { return i.Name == name })
	if idx < 0 {
		return false
	}

	d.instances[idx].Object.SetOwner(nil)
	d.instances = slices.Delete(d.instances, idx, idx+1)
	d.MarkDirty()

	return true
}

// Instances returns the instances in document order.
func (d *Document) Instances() []Instance {
	return slices.Clone(d.instances)
}

// Unparsed returns the named tables the tolerant decoder skipped. Encode
// fails while any are present unless WithDropUnparsed is given.
func (d *Document) Unparsed() []Unparsed {
	return slices.Clone(d.unparsed)
}

// Validate checks every schema and instance.
func (d *Document) Validate() error {
	for _, s := range d.effectiveSchemas() {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("schema %q: %w", s.Name(), err)
		}
	}
	for _, inst := range d.instances {
		if inst.Object.Owner() != notify.Owner(d) {
			return fmt.Errorf("instance %q: %w", inst.Name, errs.ErrOwnerMismatch)
		}
		if err := inst.Object.Validate(); err != nil {
			return fmt.Errorf("instance %q: %w", inst.Name, err)
		}
	}

	return nil
}

// effectiveSchemas returns the registered schemas followed by every schema
// reachable from the instances that is not registered, each once.
func (d *Document) effectiveSchemas() []*schema.Schema {
	seen := make(map[*schema.Schema]struct{}, len(d.schemas))
	out := make([]*schema.Schema, 0, len(d.schemas))
	add := func(s *schema.Schema) {
		if s == nil {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, s := range d.schemas {
		add(s)
	}
	for _, inst := range d.instances {
		walkSchemas(inst.Object, add)
	}

	return out
}

func walkSchemas(c cell.Cell, fn func(*schema.Schema)) {
	switch v := c.(type) {
	case *cell.ObjectCell:
		fn(v.Schema())
		for _, name := range v.Names() {
			child, _ := v.Get(name)
			walkSchemas(child, fn)
		}
	case *cell.VectorCell:
		for i := range v.Len() {
			walkSchemas(v.At(i), fn)
		}
	case *cell.VariantCell:
		if child := v.Child(); child != nil {
			walkSchemas(child, fn)
		}
	}
}

// Clone returns a deep copy. Schemas are copied once and stay shared by the
// copied instances the way they were shared by the originals.
func (d *Document) Clone() *Document {
	clone := &Document{
		version:  d.version,
		unused:   d.unused,
		unparsed: slices.Clone(d.unparsed),
	}

	mapping := make(map[*schema.Schema]*schema.Schema, len(d.schemas))
	for _, s := range d.schemas {
		cs := s.Clone()
		mapping[s] = cs
		cs.SetOwner(clone)
		clone.schemas = append(clone.schemas, cs)
	}
	for _, inst := range d.instances {
		obj := inst.Object.Clone(cell.WithSchemaMapping(mapping)).(*cell.ObjectCell)
		obj.SetOwner(clone)
		clone.instances = append(clone.instances, Instance{Name: inst.Name, Object: obj})
	}

	return clone
}

// Equals compares version, schemas by name, and instances in document order.
// The unused field is compared as written: absent counts as zero, and it is
// ignored before Version101.
func (d *Document) Equals(other *Document) bool {
	if other == nil || d.version != other.version {
		return false
	}
	if d.version >= Version101 && d.unused.OrElse(0) != other.unused.OrElse(0) {
		return false
	}

	mine := lo.KeyBy(d.effectiveSchemas(), (*schema.Schema).Name)
	theirs := lo.KeyBy(other.effectiveSchemas(), (*schema.Schema).Name)
	if len(mine) != len(theirs) {
		return false
	}
	for name, s := range mine {
		if !s.Equals(theirs[name]) {
			return false
		}
	}

	if len(d.instances) != len(other.instances) {
		return false
	}
	for i, inst := range d.instances {
		o := other.instances[i]
		if inst.Name != o.Name || !inst.Object.Equals(o.Object) {
			return false
		}
	}

	return true
}

// Summary describes the document for logs and tools.
type Summary struct {
	Version   uint32
	Schemas   int
	Instances int
	Unparsed  int
	Types     map[format.DataType]int
}

// Summarize counts the schemas, instances and cells of each data type.
func (d *Document) Summarize() Summary {
	sum := Summary{
		Version:   d.version,
		Schemas:   len(d.effectiveSchemas()),
		Instances: len(d.instances),
		Unparsed:  len(d.unparsed),
		Types:     make(map[format.DataType]int),
	}

	var count func(c cell.Cell)
	count = func(c cell.Cell) {
		sum.Types[c.DataType()]++
		switch v := c.(type) {
		case *cell.ObjectCell:
			for _, name := range v.Names() {
				child, _ := v.Get(name)
				count(child)
			}
		case *cell.VectorCell:
			for i := range v.Len() {
				count(v.At(i))
			}
		case *cell.VariantCell:
			if child := v.Child(); child != nil {
				count(child)
			}
		}
	}
	for _, inst := range d.instances {
		count(inst.Object)
	}

	return sum
}
