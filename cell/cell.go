// Package cell implements the typed value model of SimData rows.
//
// A Cell is a closed sum type: every DataType maps to exactly one concrete
// cell type, and packages outside cell dispatch with an exhaustive type
// switch.
//
//	Boolean                        -> *BooleanCell
//	String, Character              -> *TextCell
//	Int8..UInt32, Float, LocKey    -> *NumberCell
//	Int64, UInt64, TableSetRef     -> *BigIntCell
//	HashedString                   -> *HashedStringCell
//	Float2, Float3, Float4         -> *FloatVectorCell
//	ResourceKey                    -> *ResourceKeyCell
//	Object                         -> *ObjectCell
//	Vector                         -> *VectorCell
//	Variant                        -> *VariantCell
//
// Cells are never validated on construction or mutation; edit sessions may
// pass through invalid states and call Validate when they are done. Every
// setter reports the change to the cell owner, so a document learns that it
// needs to be re-encoded without polling.
//
// Note: cells are NOT thread-safe.
package cell

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/samber/mo"

	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/notify"
	"github.com/arloliu/modkit/schema"
)

// Cell is one typed value.
type Cell interface {
	notify.Owner

	// DataType returns the type tag the cell is serialized as.
	DataType() format.DataType

	// Encode writes the inline slot of the cell at the writer position.
	//
	// Pointer-bearing cells (String, HashedString, Object, Vector, Variant)
	// write the relative offset to opts.Target and fail with
	// errs.ErrMissingTarget when it is absent, except for an empty vector
	// or variant, which write a null pointer.
	Encode(w *cursor.Writer, opts EncodeOptions) error

	// Validate checks the cell and all of its descendants.
	Validate(opts ...ValidateOption) error

	// Clone returns a detached deep copy.
	Clone(opts ...CloneOption) Cell

	// Equals reports structural equality.
	Equals(other Cell) bool

	// ToTextNode renders the interchange text form of the cell.
	ToTextNode(opts ...TextOption) *etree.Element

	Owner() notify.Owner
	SetOwner(owner notify.Owner)

	sealed()
}

// EncodeOptions carries what the encoder resolved for one cell.
type EncodeOptions struct {
	// Target is the absolute position the cell's pointer refers to.
	Target mo.Option[int]
}

// At returns EncodeOptions targeting pos.
func At(pos int) EncodeOptions {
	return EncodeOptions{Target: mo.Some(pos)}
}

// Default returns the zero value cell of type t.
//
// Object cells need s; their rows are filled with the defaults of each
// column. Nested object columns have no schema to default from and are
// rejected with errs.ErrMissingSchema.
func Default(t format.DataType, s *schema.Schema) (Cell, error) {
	switch t {
	case format.TypeBoolean:
		return NewBoolean(false), nil
	case format.TypeCharacter:
		return NewCharacter(' '), nil
	case format.TypeString:
		return NewString(""), nil
	case format.TypeInt8, format.TypeUInt8, format.TypeInt16, format.TypeUInt16,
		format.TypeInt32, format.TypeUInt32, format.TypeFloat, format.TypeLocalizationKey:
		return NewNumber(t, 0), nil
	case format.TypeInt64:
		return NewInt64(0), nil
	case format.TypeUInt64:
		return NewUInt64(0), nil
	case format.TypeTableSetReference:
		return NewTableSetReference(0), nil
	case format.TypeHashedString:
		return NewHashedString(""), nil
	case format.TypeFloat2:
		return NewFloat2(0, 0), nil
	case format.TypeFloat3:
		return NewFloat3(0, 0, 0), nil
	case format.TypeFloat4:
		return NewFloat4(0, 0, 0, 0), nil
	case format.TypeResourceKey:
		return NewResourceKey(format.ResourceKey{}), nil
	case format.TypeVector:
		return NewEmptyVector(), nil
	case format.TypeVariant:
		return NewVariant(0, nil), nil
	case format.TypeObject:
		if s == nil {
			return nil, errs.ErrMissingSchema
		}
		row := make(map[string]Cell, s.Len())
		for _, col := range s.Columns() {
			if col.DataType() == format.TypeObject {
				return nil, fmt.Errorf("%w: nested object column %q of schema %q", errs.ErrMissingSchema, col.Name(), s.Name())
			}
			c, err := Default(col.DataType(), nil)
			if err != nil {
				return nil, err
			}
			row[col.Name()] = c
		}

		return NewObject(s, row), nil
	default:
		return nil, fmt.Errorf("%w: no default for %s", errs.ErrUnsupportedType, t)
	}
}

// missingTarget builds the encode contract error for c.
func missingTarget(c Cell) error {
	return fmt.Errorf("%w: %s cell", errs.ErrMissingTarget, c.DataType())
}

// checkOwner verifies that child is attached to parent.
func checkOwner(parent notify.Owner, child Cell, cfg *validateConfig) error {
	if cfg.ignoreOwner {
		return nil
	}
	if child.Owner() != parent {
		return fmt.Errorf("%w: %s child", errs.ErrOwnerMismatch, child.DataType())
	}

	return nil
}

// encodePointer writes the relative offset to opts.Target.
func encodePointer(c Cell, w *cursor.Writer, opts EncodeOptions) error {
	target, ok := opts.Target.Get()
	if !ok {
		return missingTarget(c)
	}

	return w.WriteRelOffset(target)
}
