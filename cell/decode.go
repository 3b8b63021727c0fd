package cell

import (
	"fmt"

	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
)

// DecodeInline reads a non-recursive value of type t at the reader position.
//
// String and HashedString slots are followed into the character pool; a
// null pool pointer decodes as the empty string. Recursive types need table
// resolution and are decoded by the document decoder.
func DecodeInline(r *cursor.Reader, t format.DataType) (Cell, error) {
	switch t {
	case format.TypeBoolean:
		v, err := r.Uint8()
		return NewBoolean(v != 0), err

	case format.TypeCharacter:
		v, err := r.Uint8()
		return NewCharacter(v), err

	case format.TypeInt8:
		v, err := r.Int8()
		return NewNumber(t, float64(v)), err

	case format.TypeUInt8:
		v, err := r.Uint8()
		return NewNumber(t, float64(v)), err

	case format.TypeInt16:
		v, err := r.Int16()
		return NewNumber(t, float64(v)), err

	case format.TypeUInt16:
		v, err := r.Uint16()
		return NewNumber(t, float64(v)), err

	case format.TypeInt32:
		v, err := r.Int32()
		return NewNumber(t, float64(v)), err

	case format.TypeUInt32, format.TypeLocalizationKey:
		v, err := r.Uint32()
		return NewNumber(t, float64(v)), err

	case format.TypeFloat:
		v, err := r.Float32()
		return NewNumber(t, float64(v)), err

	case format.TypeInt64:
		v, err := r.Int64()
		return NewInt64(v), err

	case format.TypeUInt64:
		v, err := r.Uint64()
		return NewUInt64(v), err

	case format.TypeTableSetReference:
		v, err := r.Uint64()
		return NewTableSetReference(v), err

	case format.TypeString:
		s, err := readPooled(r)
		if err != nil {
			return nil, err
		}

		return NewString(s), nil

	case format.TypeHashedString:
		s, err := readPooled(r)
		if err != nil {
			return nil, err
		}
		h, err := r.Uint32()
		if err != nil {
			return nil, err
		}

		return NewHashedStringWithHash(s, h), nil

	case format.TypeFloat2, format.TypeFloat3, format.TypeFloat4:
		values := make([]float32, FloatArity(t))
		for i := range values {
			v, err := r.Float32()
			if err != nil {
				return nil, err
			}
			values[i] = v
		}

		return NewFloatVector(t, values), nil

	case format.TypeResourceKey:
		inst, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		typ, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		group, err := r.Uint32()
		if err != nil {
			return nil, err
		}

		return NewResourceKey(format.ResourceKey{Type: typ, Group: group, Instance: inst}), nil

	default:
		return nil, fmt.Errorf("%w: %s is not an inline type", errs.ErrUnsupportedType, t)
	}
}

func readPooled(r *cursor.Reader) (string, error) {
	target, ok, err := r.RelOffset()
	if err != nil || !ok {
		return "", err
	}

	return r.CStringAt(target)
}
