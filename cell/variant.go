package cell

import (
	"fmt"

	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/notify"
)

// VariantCell holds an optional child of any type tagged with a 32-bit type
// hash.
//
// The slot is a pointer to the child followed by the type hash. A variant
// without a child is written with a null pointer.
type VariantCell struct {
	notify.Node
	typeHash uint32
	child    Cell
}

// NewVariant creates a variant; child may be nil.
func NewVariant(typeHash uint32, child Cell) *VariantCell {
	v := &VariantCell{typeHash: typeHash, child: child}
	if child != nil {
		child.SetOwner(v)
	}

	return v
}

func (v *VariantCell) sealed() {}

// DataType always returns format.TypeVariant.
func (v *VariantCell) DataType() format.DataType { return format.TypeVariant }

// TypeHash returns the type hash stored after the child pointer.
func (v *VariantCell) TypeHash() uint32 { return v.typeHash }

// Child returns the child, or nil for an empty variant.
func (v *VariantCell) Child() Cell { return v.child }

// SetTypeHash replaces the type hash. The child is not checked against it.
func (v *VariantCell) SetTypeHash(h uint32) {
	v.typeHash = h
	v.MarkDirty()
}

// SetChild replaces the child; nil empties the variant.
func (v *VariantCell) SetChild(c Cell) {
	if v.child != nil && v.child != c {
		v.child.SetOwner(nil)
	}
	if c != nil {
		c.SetOwner(v)
	}
	v.child = c
	v.MarkDirty()
}

// Encode writes the child pointer and the type hash. An empty variant
// writes a null pointer.
func (v *VariantCell) Encode(w *cursor.Writer, opts EncodeOptions) error {
	if v.child == nil {
		w.WriteNullOffset()
	} else if err := encodePointer(v, w, opts); err != nil {
		return err
	}
	w.WriteUint32(v.typeHash)

	return nil
}

// Validate validates the payload, if any.
func (v *VariantCell) Validate(opts ...ValidateOption) error {
	if v.child == nil {
		return nil
	}
	cfg := newValidateConfig(opts)
	if err := checkOwner(v, v.child, cfg); err != nil {
		return fmt.Errorf("variant 0x%08X: %w", v.typeHash, err)
	}
	if err := v.child.Validate(cfg.forward()...); err != nil {
		return fmt.Errorf("variant 0x%08X: %w", v.typeHash, err)
	}

	return nil
}

// Clone deep-copies the payload.
func (v *VariantCell) Clone(opts ...CloneOption) Cell {
	if v.child == nil {
		return NewVariant(v.typeHash, nil)
	}
	cfg := newCloneConfig(opts)

	return NewVariant(v.typeHash, v.child.Clone(withCloneConfig(cfg)))
}

// Equals compares the type hash and the payloads.
func (v *VariantCell) Equals(other Cell) bool {
	o, ok := other.(*VariantCell)
	if !ok || o.typeHash != v.typeHash {
		return false
	}
	if v.child == nil || o.child == nil {
		return v.child == nil && o.child == nil
	}

	return v.child.Equals(o.child)
}
