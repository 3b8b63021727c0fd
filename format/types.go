package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/modkit/errs"
)

type (
	DataType        uint16
	CompressionType uint8
)

const (
	TypeBoolean           DataType = 0  // TypeBoolean is a single byte, 0 or 1.
	TypeCharacter         DataType = 1  // TypeCharacter is a single byte character.
	TypeInt8              DataType = 2  // TypeInt8 is a signed 8-bit integer.
	TypeUInt8             DataType = 3  // TypeUInt8 is an unsigned 8-bit integer.
	TypeInt16             DataType = 4  // TypeInt16 is a signed 16-bit integer.
	TypeUInt16            DataType = 5  // TypeUInt16 is an unsigned 16-bit integer.
	TypeInt32             DataType = 6  // TypeInt32 is a signed 32-bit integer.
	TypeUInt32            DataType = 7  // TypeUInt32 is an unsigned 32-bit integer.
	TypeInt64             DataType = 8  // TypeInt64 is a signed 64-bit integer.
	TypeUInt64            DataType = 9  // TypeUInt64 is an unsigned 64-bit integer.
	TypeFloat             DataType = 10 // TypeFloat is an IEEE-754 single precision float.
	TypeString            DataType = 11 // TypeString is a pointer into the character pool.
	TypeHashedString      DataType = 12 // TypeHashedString is a pool pointer followed by a 32-bit hash.
	TypeObject            DataType = 13 // TypeObject is a pointer to a schema row.
	TypeVector            DataType = 14 // TypeVector is a pointer to a run of elements plus a count.
	TypeFloat2            DataType = 15 // TypeFloat2 is two floats.
	TypeFloat3            DataType = 16 // TypeFloat3 is three floats.
	TypeFloat4            DataType = 17 // TypeFloat4 is four floats.
	TypeTableSetReference DataType = 18 // TypeTableSetReference is a 64-bit reference.
	TypeResourceKey       DataType = 19 // TypeResourceKey is instance u64, type u32, group u32.
	TypeLocalizationKey   DataType = 20 // TypeLocalizationKey is a 32-bit string table key.
	TypeVariant           DataType = 21 // TypeVariant is a pointer to one element plus a type hash.
	TypeUndefined         DataType = 22 // TypeUndefined has no encoding.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionZlib CompressionType = 0x5 // CompressionZlib represents ZLIB, the archive default.
)

type typeInfo struct {
	name      string
	width     uint32 // slot width inside a row
	align     uint32
	recursive bool
}

var catalog = [...]typeInfo{
	TypeBoolean:           {"Boolean", 1, 1, false},
	TypeCharacter:         {"Character", 1, 1, false},
	TypeInt8:              {"Int8", 1, 1, false},
	TypeUInt8:             {"UInt8", 1, 1, false},
	TypeInt16:             {"Int16", 2, 2, false},
	TypeUInt16:            {"UInt16", 2, 2, false},
	TypeInt32:             {"Int32", 4, 4, false},
	TypeUInt32:            {"UInt32", 4, 4, false},
	TypeInt64:             {"Int64", 8, 8, false},
	TypeUInt64:            {"UInt64", 8, 8, false},
	TypeFloat:             {"Float", 4, 4, false},
	TypeString:            {"String", 4, 4, false},
	TypeHashedString:      {"HashedString", 8, 4, false},
	TypeObject:            {"Object", 4, 4, true},
	TypeVector:            {"Vector", 8, 4, true},
	TypeFloat2:            {"Float2", 8, 4, false},
	TypeFloat3:            {"Float3", 12, 4, false},
	TypeFloat4:            {"Float4", 16, 4, false},
	TypeTableSetReference: {"TableSetReference", 8, 8, false},
	TypeResourceKey:       {"ResourceKey", 16, 8, false},
	TypeLocalizationKey:   {"LocalizationKey", 4, 4, false},
	TypeVariant:           {"Variant", 8, 4, true},
}

func (t DataType) info() (typeInfo, error) {
	if int(t) >= len(catalog) {
		return typeInfo{}, fmt.Errorf("%w: %d", errs.ErrUnsupportedType, uint16(t))
	}

	return catalog[t], nil
}

// Valid reports whether t has an encoding.
func (t DataType) Valid() bool {
	return int(t) < len(catalog)
}

// IsRecursive reports whether values of t are stored elsewhere in the buffer
// and referenced by a relative pointer.
func (t DataType) IsRecursive() bool {
	return t == TypeObject || t == TypeVector || t == TypeVariant
}

// HasPoolPointer reports whether the slot of t points into the character pool.
func (t DataType) HasPoolPointer() bool {
	return t == TypeString || t == TypeHashedString
}

// IsPointer reports whether the slot of t starts with a relative pointer.
func (t DataType) IsPointer() bool {
	return t.IsRecursive() || t.HasPoolPointer()
}

func (t DataType) String() string {
	if info, err := t.info(); err == nil {
		return info.name
	}
	if t == TypeUndefined {
		return "Undefined"
	}

	return "Unknown(" + strconv.Itoa(int(t)) + ")"
}

// ParseDataType returns the data type with the given name, case-insensitively.
func ParseDataType(name string) (DataType, error) {
	for i, info := range catalog {
		if strings.EqualFold(info.name, name) {
			return DataType(i), nil //nolint: gosec
		}
	}

	return TypeUndefined, fmt.Errorf("%w: %q", errs.ErrUnsupportedType, name)
}

// ByteWidth returns the fixed width of a non-recursive value of type t.
//
// Recursive types have no fixed width: their payload lives in another table
// and its size depends on the value. Use SlotWidth for the size of the
// pointer slot a recursive value occupies inside a row.
func ByteWidth(t DataType) (uint32, error) {
	if t.IsRecursive() {
		return 0, fmt.Errorf("%w: %s has no fixed width", errs.ErrUnsupportedType, t)
	}
	info, err := t.info()
	if err != nil {
		return 0, err
	}

	return info.width, nil
}

// SlotWidth returns the number of bytes a value of type t occupies inside a
// row or a table, counting recursive values by their pointer slot.
func SlotWidth(t DataType) (uint32, error) {
	info, err := t.info()
	if err != nil {
		return 0, err
	}

	return info.width, nil
}

// Alignment returns the required alignment of t in bytes.
func Alignment(t DataType) (uint32, error) {
	info, err := t.info()
	if err != nil {
		return 0, err
	}

	return info.align, nil
}

// AlignmentMask returns alignment-1, so that -pos & mask is the padding
// needed before a value of type t at pos.
func AlignmentMask(t DataType) (uint32, error) {
	align, err := Alignment(t)
	if err != nil {
		return 0, err
	}

	return align - 1, nil
}

// IsRecursive reports whether t is stored by pointer.
func IsRecursive(t DataType) bool {
	return t.IsRecursive()
}

// Padding returns the number of bytes needed to move pos up to a multiple of
// align. align must be a power of two.
func Padding(pos int, align uint32) int {
	mask := int(align) - 1
	return -pos & mask
}

// AlignUp rounds pos up to a multiple of align.
func AlignUp(pos int, align uint32) int {
	return pos + Padding(pos, align)
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZlib:
		return "Zlib"
	default:
		return "Unknown"
	}
}
