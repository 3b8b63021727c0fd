package cell

import (
	"fmt"
	"slices"

	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/notify"
)

// VectorCell is an ordered list of cells of one data type.
//
// The slot is a pointer to the first element followed by the element count;
// the elements are stored contiguously in the table of their type. An empty
// vector has no child type and is written with a null pointer.
type VectorCell struct {
	notify.Node
	children []Cell
}

// NewVector creates a vector and takes ownership of the children.
//
// Returns:
//   - error: ErrMixedVectorTypes if the children do not share a data type
func NewVector(children ...Cell) (*VectorCell, error) {
	if err := checkHomogeneous(children); err != nil {
		return nil, err
	}

	v := &VectorCell{children: make([]Cell, 0, len(children))}
	for _, c := range children {
		c.SetOwner(v)
		v.children = append(v.children, c)
	}

	return v, nil
}

// MustVector is like NewVector but panics on mixed child types.
func MustVector(children ...Cell) *VectorCell {
	v, err := NewVector(children...)
	if err != nil {
		panic(err)
	}

	return v
}

// NewEmptyVector creates a vector with no children.
func NewEmptyVector() *VectorCell {
	return &VectorCell{}
}

func checkHomogeneous(children []Cell) error {
	for i, c := range children {
		if c == nil {
			return fmt.Errorf("%w: nil child at %d", errs.ErrMixedVectorTypes, i)
		}
		if i > 0 && c.DataType() != children[0].DataType() {
			return fmt.Errorf("%w: child %d is %s, child 0 is %s",
				errs.ErrMixedVectorTypes, i, c.DataType(), children[0].DataType())
		}
	}

	return nil
}

func (v *VectorCell) sealed() {}

// DataType always returns format.TypeVector.
func (v *VectorCell) DataType() format.DataType { return format.TypeVector }

// ChildType returns the data type shared by the children. ok is false for
// an empty vector.
func (v *VectorCell) ChildType() (t format.DataType, ok bool) {
	if len(v.children) == 0 {
		return format.TypeUndefined, false
	}

	return v.children[0].DataType(), true
}

// Len returns the number of elements.
func (v *VectorCell) Len() int { return len(v.children) }

// At returns element i. It panics if i is out of range.
func (v *VectorCell) At(i int) Cell { return v.children[i] }

// Children returns a copy of the child list.
func (v *VectorCell) Children() []Cell { return slices.Clone(v.children) }

func (v *VectorCell) accepts(c Cell) error {
	if c == nil {
		return fmt.Errorf("%w: nil child", errs.ErrMixedVectorTypes)
	}
	if t, ok := v.ChildType(); ok && c.DataType() != t {
		return fmt.Errorf("%w: vector of %s cannot hold %s", errs.ErrMixedVectorTypes, t, c.DataType())
	}

	return nil
}

// Append adds c at the end.
func (v *VectorCell) Append(c Cell) error {
	if err := v.accepts(c); err != nil {
		return err
	}
	c.SetOwner(v)
	v.children = append(v.children, c)
	v.MarkDirty()

	return nil
}

// Set replaces the child at i.
func (v *VectorCell) Set(i int, c Cell) error {
	if c == nil {
		return fmt.Errorf("%w: nil child", errs.ErrMixedVectorTypes)
	}
	if len(v.children) > 1 {
		if err := v.accepts(c); err != nil {
			return err
		}
	}
	v.children[i].SetOwner(nil)
	c.SetOwner(v)
	v.children[i] = c
	v.MarkDirty()

	return nil
}

// Remove deletes the child at i.
func (v *VectorCell) Remove(i int) {
	v.children[i].SetOwner(nil)
	v.children = slices.Delete(v.children, i, i+1)
	v.MarkDirty()
}

// Encode writes the element pointer and count. An empty vector without a
// target writes a null pointer.
func (v *VectorCell) Encode(w *cursor.Writer, opts EncodeOptions) error {
	target, ok := opts.Target.Get()
	switch {
	case ok:
		if err := w.WriteRelOffset(target); err != nil {
			return err
		}
	case len(v.children) == 0:
		w.WriteNullOffset()
	default:
		return missingTarget(v)
	}
	w.WriteUint32(uint32(len(v.children))) //nolint: gosec

	return nil
}

// Validate checks homogeneity and every child. Object children must also
// share one schema, since they are stored as consecutive rows of one table.
func (v *VectorCell) Validate(opts ...ValidateOption) error {
	cfg := newValidateConfig(opts)
	if err := checkHomogeneous(v.children); err != nil {
		return err
	}

	var first *ObjectCell
	for i, c := range v.children {
		if err := checkOwner(v, c, cfg); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if err := c.Validate(cfg.forward()...); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if o, ok := c.(*ObjectCell); ok {
			if first == nil {
				first = o
			} else if !first.schema.Equals(o.schema) {
				return fmt.Errorf("%w: element %d uses schema %s, element 0 uses %s",
					errs.ErrMixedVectorTypes, i, o.schema, first.schema)
			}
		}
	}

	return nil
}

// Clone deep-copies every element.
func (v *VectorCell) Clone(opts ...CloneOption) Cell {
	cfg := newCloneConfig(opts)
	clone := &VectorCell{children: make([]Cell, len(v.children))}
	for i, c := range v.children {
		cc := c.Clone(withCloneConfig(cfg))
		cc.SetOwner(clone)
		clone.children[i] = cc
	}

	return clone
}

// Equals compares the elements pairwise.
func (v *VectorCell) Equals(other Cell) bool {
	o, ok := other.(*VectorCell)
	if !ok || len(o.children) != len(v.children) {
		return false
	}
	for i, c := range v.children {
		if !c.Equals(o.children[i]) {
			return false
		}
	}

	return true
}
