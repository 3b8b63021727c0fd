package cell

import (
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/hash"
	"github.com/arloliu/modkit/notify"
)

// HashedStringCell holds a pooled string together with a 32-bit hash.
//
// The slot is a pointer into the character pool followed by the hash.
type HashedStringCell struct {
	notify.Node
	value string
	hash  uint32
}

// NewHashedString creates a cell hashing v with hash.FNV32.
func NewHashedString(v string) *HashedStringCell {
	return &HashedStringCell{value: v, hash: hash.FNV32(v)}
}

// NewHashedStringWithHash creates a cell with an explicit hash, as stored.
func NewHashedStringWithHash(v string, h uint32) *HashedStringCell {
	return &HashedStringCell{value: v, hash: h}
}

func (c *HashedStringCell) sealed() {}

// DataType always returns format.TypeHashedString.
func (c *HashedStringCell) DataType() format.DataType { return format.TypeHashedString }

// Value returns the text.
func (c *HashedStringCell) Value() string { return c.value }

// Hash returns the hash written after the pool pointer.
func (c *HashedStringCell) Hash() uint32 { return c.hash }

// SetValue replaces the string and rehashes it.
func (c *HashedStringCell) SetValue(v string) {
	c.value = v
	c.hash = hash.FNV32(v)
	c.MarkDirty()
}

// Encode writes the pool pointer followed by the hash.
func (c *HashedStringCell) Encode(w *cursor.Writer, opts EncodeOptions) error {
	if err := encodePointer(c, w, opts); err != nil {
		return err
	}
	w.WriteUint32(c.hash)

	return nil
}

// Validate rejects text containing a null byte.
func (c *HashedStringCell) Validate(...ValidateOption) error {
	for i := 0; i < len(c.value); i++ {
		if c.value[i] == 0 {
			return fmt.Errorf("%w: hashed string contains a null byte at %d", errs.ErrValueOutOfRange, i)
		}
	}

	return nil
}

// Clone returns an unowned copy.
func (c *HashedStringCell) Clone(...CloneOption) Cell {
	return &HashedStringCell{value: c.value, hash: c.hash}
}

// Equals compares both the text and the stored hash.
func (c *HashedStringCell) Equals(other Cell) bool {
	o, ok := other.(*HashedStringCell)
	return ok && o.value == c.value && o.hash == c.hash
}

// FloatVectorCell holds two, three or four floats.
type FloatVectorCell struct {
	notify.Node
	dataType format.DataType
	values   []float32
}

// NewFloat2 creates a Float2 cell.
func NewFloat2(x, y float32) *FloatVectorCell {
	return &FloatVectorCell{dataType: format.TypeFloat2, values: []float32{x, y}}
}

// NewFloat3 creates a Float3 cell.
func NewFloat3(x, y, z float32) *FloatVectorCell {
	return &FloatVectorCell{dataType: format.TypeFloat3, values: []float32{x, y, z}}
}

// NewFloat4 creates a Float4 cell.
func NewFloat4(x, y, z, w float32) *FloatVectorCell {
	return &FloatVectorCell{dataType: format.TypeFloat4, values: []float32{x, y, z, w}}
}

// NewFloatVector creates a float vector cell of type t from values. The
// arity is checked by Validate, not here.
func NewFloatVector(t format.DataType, values []float32) *FloatVectorCell {
	return &FloatVectorCell{dataType: t, values: slices.Clone(values)}
}

// FloatArity returns the component count of a float vector type, or 0.
func FloatArity(t format.DataType) int {
	switch t {
	case format.TypeFloat2:
		return 2
	case format.TypeFloat3:
		return 3
	case format.TypeFloat4:
		return 4
	default:
		return 0
	}
}

func (c *FloatVectorCell) sealed() {}

// DataType returns Float2, Float3 or Float4.
func (c *FloatVectorCell) DataType() format.DataType { return c.dataType }

// Values returns a copy of the components.
func (c *FloatVectorCell) Values() []float32 { return slices.Clone(c.values) }

// Component returns component i.
func (c *FloatVectorCell) Component(i int) float32 { return c.values[i] }

// SetComponent replaces component i.
func (c *FloatVectorCell) SetComponent(i int, v float32) {
	c.values[i] = v
	c.MarkDirty()
}

// Validate checks that the component count matches the type.
func (c *FloatVectorCell) Validate(...ValidateOption) error {
	arity := FloatArity(c.dataType)
	if arity == 0 {
		return fmt.Errorf("%w: float vector cell typed %s", errs.ErrColumnType, c.dataType)
	}
	if len(c.values) != arity {
		return fmt.Errorf("%w: %s needs %d components, has %d", errs.ErrInvalidArity, c.dataType, arity, len(c.values))
	}

	return nil
}

// Encode checks the arity, then writes each component as a float32.
func (c *FloatVectorCell) Encode(w *cursor.Writer, _ EncodeOptions) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, v := range c.values {
		w.WriteFloat32(v)
	}

	return nil
}

// Clone returns an unowned copy with its own component slice.
func (c *FloatVectorCell) Clone(...CloneOption) Cell {
	return &FloatVectorCell{dataType: c.dataType, values: slices.Clone(c.values)}
}

// Equals compares the type and the components. NaN components match when
// their bits do.
func (c *FloatVectorCell) Equals(other Cell) bool {
	o, ok := other.(*FloatVectorCell)
	if !ok || o.dataType != c.dataType || len(o.values) != len(c.values) {
		return false
	}
	for i, v := range c.values {
		if v != o.values[i] && math.Float32bits(v) != math.Float32bits(o.values[i]) {
			return false
		}
	}

	return true
}

// ResourceKeyCell holds a resource key, stored as instance, type, group.
type ResourceKeyCell struct {
	notify.Node
	value format.ResourceKey
}

// NewResourceKey creates a ResourceKey cell.
func NewResourceKey(k format.ResourceKey) *ResourceKeyCell {
	return &ResourceKeyCell{value: k}
}

func (c *ResourceKeyCell) sealed() {}

// DataType always returns format.TypeResourceKey.
func (c *ResourceKeyCell) DataType() format.DataType { return format.TypeResourceKey }

// Value returns the stored key.
func (c *ResourceKeyCell) Value() format.ResourceKey { return c.value }

// SetValue replaces the key and marks the owner dirty.
func (c *ResourceKeyCell) SetValue(k format.ResourceKey) {
	c.value = k
	c.MarkDirty()
}

// Encode writes instance, type and group in that order.
func (c *ResourceKeyCell) Encode(w *cursor.Writer, _ EncodeOptions) error {
	w.WriteUint64(c.value.Instance)
	w.WriteUint32(c.value.Type)
	w.WriteUint32(c.value.Group)

	return nil
}

// Validate never fails.
func (c *ResourceKeyCell) Validate(...ValidateOption) error { return nil }

// Clone returns an unowned copy.
func (c *ResourceKeyCell) Clone(...CloneOption) Cell {
	return NewResourceKey(c.value)
}

// Equals compares all three key fields.
func (c *ResourceKeyCell) Equals(other Cell) bool {
	o, ok := other.(*ResourceKeyCell)
	return ok && o.value == c.value
}
