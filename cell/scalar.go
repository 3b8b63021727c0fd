package cell

import (
	"fmt"
	"math"

	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/notify"
)

// BooleanCell holds a Boolean.
type BooleanCell struct {
	notify.Node
	value bool
}

// NewBoolean creates a Boolean cell.
func NewBoolean(v bool) *BooleanCell {
	return &BooleanCell{value: v}
}

func (c *BooleanCell) sealed() {}

// DataType always returns format.TypeBoolean.
func (c *BooleanCell) DataType() format.DataType { return format.TypeBoolean }

// Value returns the stored Boolean.
func (c *BooleanCell) Value() bool { return c.value }

// SetValue replaces the value and marks the owner dirty.
func (c *BooleanCell) SetValue(v bool) {
	c.value = v
	c.MarkDirty()
}

// Encode writes one byte: 1 for true, 0 for false.
func (c *BooleanCell) Encode(w *cursor.Writer, _ EncodeOptions) error {
	if c.value {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}

	return nil
}

// Validate never fails; every Boolean is encodable.
func (c *BooleanCell) Validate(...ValidateOption) error { return nil }

// Clone returns an unowned copy.
func (c *BooleanCell) Clone(...CloneOption) Cell {
	return NewBoolean(c.value)
}

// Equals reports whether other is a Boolean with the same value.
func (c *BooleanCell) Equals(other Cell) bool {
	o, ok := other.(*BooleanCell)
	return ok && o.value == c.value
}

// TextCell holds a String or a Character.
//
// A String value lives in the character pool and is referenced from its slot
// by pointer; a Character is a single inline byte.
type TextCell struct {
	notify.Node
	dataType format.DataType
	value    string
}

// NewString creates a String cell.
func NewString(v string) *TextCell {
	return &TextCell{dataType: format.TypeString, value: v}
}

// NewCharacter creates a Character cell.
func NewCharacter(v byte) *TextCell {
	return &TextCell{dataType: format.TypeCharacter, value: string([]byte{v})}
}

func (c *TextCell) sealed() {}

// DataType returns format.TypeString or format.TypeCharacter.
func (c *TextCell) DataType() format.DataType { return c.dataType }

// Value returns the text. A Character holds exactly one byte.
func (c *TextCell) Value() string { return c.value }

// SetValue replaces the text and marks the owner dirty. It does not check
// the length of a Character; Validate does.
func (c *TextCell) SetValue(v string) {
	c.value = v
	c.MarkDirty()
}

// Encode writes a Character inline and a String as a pointer into the
// character pool.
func (c *TextCell) Encode(w *cursor.Writer, opts EncodeOptions) error {
	if c.dataType == format.TypeCharacter {
		if len(c.value) != 1 {
			return fmt.Errorf("%w: character cell holds %d bytes", errs.ErrValueOutOfRange, len(c.value))
		}
		w.WriteUint8(c.value[0])

		return nil
	}

	return encodePointer(c, w, opts)
}

// Validate requires a Character to hold one byte and a String to contain no
// null byte, since pool strings are null terminated.
func (c *TextCell) Validate(...ValidateOption) error {
	switch c.dataType {
	case format.TypeCharacter:
		if len(c.value) != 1 {
			return fmt.Errorf("%w: character cell holds %d bytes", errs.ErrValueOutOfRange, len(c.value))
		}
	case format.TypeString:
		for i := 0; i < len(c.value); i++ {
			if c.value[i] == 0 {
				return fmt.Errorf("%w: string contains a null byte at %d", errs.ErrValueOutOfRange, i)
			}
		}
	default:
		return fmt.Errorf("%w: text cell typed %s", errs.ErrColumnType, c.dataType)
	}

	return nil
}

// Clone returns an unowned copy.
func (c *TextCell) Clone(...CloneOption) Cell {
	return &TextCell{dataType: c.dataType, value: c.value}
}

// Equals compares the type and the text.
func (c *TextCell) Equals(other Cell) bool {
	o, ok := other.(*TextCell)
	return ok && o.dataType == c.dataType && o.value == c.value
}

// NumberCell holds a numeric value of at most 32 bits: Int8 through UInt32,
// Float and LocalizationKey.
//
// The value is kept as a float64, which represents every value of these types
// exactly. Validate reports values that do not fit the declared type.
type NumberCell struct {
	notify.Node
	dataType format.DataType
	value    float64
}

// NewNumber creates a numeric cell of type t.
func NewNumber(t format.DataType, v float64) *NumberCell {
	return &NumberCell{dataType: t, value: v}
}

// NewLocalizationKey creates a LocalizationKey cell referencing a string
// table key.
func NewLocalizationKey(key uint32) *NumberCell {
	return &NumberCell{dataType: format.TypeLocalizationKey, value: float64(key)}
}

func (c *NumberCell) sealed() {}

// DataType returns the declared numeric type.
func (c *NumberCell) DataType() format.DataType { return c.dataType }

// Value returns the value as a float64.
func (c *NumberCell) Value() float64 { return c.value }

// Int returns the value truncated to an integer.
func (c *NumberCell) Int() int64 { return int64(c.value) }

// Float returns the value at single precision.
func (c *NumberCell) Float() float32 { return float32(c.value) }

// SetValue replaces the value and marks the owner dirty.
func (c *NumberCell) SetValue(v float64) {
	c.value = v
	c.MarkDirty()
}

type intRange struct {
	lo, hi float64
}

var numberRanges = map[format.DataType]intRange{
	format.TypeInt8:            {math.MinInt8, math.MaxInt8},
	format.TypeUInt8:           {0, math.MaxUint8},
	format.TypeInt16:           {math.MinInt16, math.MaxInt16},
	format.TypeUInt16:          {0, math.MaxUint16},
	format.TypeInt32:           {math.MinInt32, math.MaxInt32},
	format.TypeUInt32:          {0, math.MaxUint32},
	format.TypeLocalizationKey: {0, math.MaxUint32},
}

// Validate checks that the value is representable in the declared type:
// integral and in range for the integer types, finite single precision
// magnitude for Float. Infinities and NaN are valid Floats.
func (c *NumberCell) Validate(...ValidateOption) error {
	if c.dataType == format.TypeFloat {
		if !math.IsInf(c.value, 0) && !math.IsNaN(c.value) && math.Abs(c.value) > math.MaxFloat32 {
			return fmt.Errorf("%w: %g does not fit Float", errs.ErrValueOutOfRange, c.value)
		}

		return nil
	}

	r, ok := numberRanges[c.dataType]
	if !ok {
		return fmt.Errorf("%w: number cell typed %s", errs.ErrColumnType, c.dataType)
	}
	if c.value != math.Trunc(c.value) {
		return fmt.Errorf("%w: %g is not an integer %s", errs.ErrValueOutOfRange, c.value, c.dataType)
	}
	if c.value < r.lo || c.value > r.hi {
		return fmt.Errorf("%w: %g does not fit %s", errs.ErrValueOutOfRange, c.value, c.dataType)
	}

	return nil
}

// Encode writes the value at the width of its type.
func (c *NumberCell) Encode(w *cursor.Writer, _ EncodeOptions) error {
	switch c.dataType {
	case format.TypeInt8:
		w.WriteInt8(int8(c.value))
	case format.TypeUInt8:
		w.WriteUint8(uint8(c.value))
	case format.TypeInt16:
		w.WriteInt16(int16(c.value))
	case format.TypeUInt16:
		w.WriteUint16(uint16(c.value))
	case format.TypeInt32:
		w.WriteInt32(int32(c.value))
	case format.TypeUInt32, format.TypeLocalizationKey:
		w.WriteUint32(uint32(c.value))
	case format.TypeFloat:
		w.WriteFloat32(float32(c.value))
	default:
		return fmt.Errorf("%w: number cell typed %s", errs.ErrUnsupportedType, c.dataType)
	}

	return nil
}

// Clone returns an unowned copy.
func (c *NumberCell) Clone(...CloneOption) Cell {
	return &NumberCell{dataType: c.dataType, value: c.value}
}

// Equals compares Float values at single precision.
func (c *NumberCell) Equals(other Cell) bool {
	o, ok := other.(*NumberCell)
	if !ok || o.dataType != c.dataType {
		return false
	}
	if c.dataType == format.TypeFloat {
		return math.Float32bits(float32(c.value)) == math.Float32bits(float32(o.value)) ||
			float32(c.value) == float32(o.value)
	}

	return c.value == o.value
}

// BigIntCell holds a 64-bit integer: Int64, UInt64 or TableSetReference.
// The raw bits are stored; Int64 reads them as two's complement.
type BigIntCell struct {
	notify.Node
	dataType format.DataType
	bits     uint64
}

// NewInt64 creates an Int64 cell.
func NewInt64(v int64) *BigIntCell {
	return &BigIntCell{dataType: format.TypeInt64, bits: uint64(v)} //nolint: gosec
}

// NewUInt64 creates a UInt64 cell.
func NewUInt64(v uint64) *BigIntCell {
	return &BigIntCell{dataType: format.TypeUInt64, bits: v}
}

// NewTableSetReference creates a TableSetReference cell.
func NewTableSetReference(v uint64) *BigIntCell {
	return &BigIntCell{dataType: format.TypeTableSetReference, bits: v}
}

func (c *BigIntCell) sealed() {}

// DataType returns Int64, UInt64 or TableSetReference.
func (c *BigIntCell) DataType() format.DataType { return c.dataType }

// Int64 reads the stored bits as two's complement.
func (c *BigIntCell) Int64() int64 { return int64(c.bits) } //nolint: gosec

// Uint64 returns the stored bits.
func (c *BigIntCell) Uint64() uint64 { return c.bits }

// SetInt64 stores v as two's complement bits and marks the owner dirty.
func (c *BigIntCell) SetInt64(v int64) {
	c.bits = uint64(v) //nolint: gosec
	c.MarkDirty()
}

// SetUint64 stores v and marks the owner dirty.
func (c *BigIntCell) SetUint64(v uint64) {
	c.bits = v
	c.MarkDirty()
}

// Encode writes the 8 raw bytes.
func (c *BigIntCell) Encode(w *cursor.Writer, _ EncodeOptions) error {
	w.WriteUint64(c.bits)
	return nil
}

// Validate rejects a cell constructed with a non 64-bit type.
func (c *BigIntCell) Validate(...ValidateOption) error {
	switch c.dataType {
	case format.TypeInt64, format.TypeUInt64, format.TypeTableSetReference:
		return nil
	default:
		return fmt.Errorf("%w: 64-bit cell typed %s", errs.ErrColumnType, c.dataType)
	}
}

// Clone returns an unowned copy.
func (c *BigIntCell) Clone(...CloneOption) Cell {
	return &BigIntCell{dataType: c.dataType, bits: c.bits}
}

// Equals compares the type and the raw bits.
func (c *BigIntCell) Equals(other Cell) bool {
	o, ok := other.(*BigIntCell)
	return ok && o.dataType == c.dataType && o.bits == c.bits
}
