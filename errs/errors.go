// Package errs defines the sentinel errors shared by every modkit package.
//
// Errors are grouped into four categories. Every specific error wraps exactly
// one category, so callers can branch on either level:
//
//	if errors.Is(err, errs.ErrFormat) {
//	    // bad magic or unsupported version
//	}
//	if errors.Is(err, errs.ErrInvalidMagic) {
//	    // only the magic tag
//	}
//
// Categories:
//   - ErrFormat: the buffer is not a file of the expected kind.
//   - ErrLayout: a pointer or schema reference cannot be resolved.
//   - ErrValidation: a cell or schema is structurally invalid.
//   - ErrEncodeContract: the caller asked the encoder for something it must
//     never produce.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrFormat         = errors.New("format error")
	ErrLayout         = errors.New("layout error")
	ErrValidation     = errors.New("validation error")
	ErrEncodeContract = errors.New("encode contract error")
)

// Format errors.
var (
	ErrInvalidMagic           = fmt.Errorf("%w: invalid magic tag", ErrFormat)
	ErrUnsupportedVersion     = fmt.Errorf("%w: unsupported version", ErrFormat)
	ErrInvalidHeaderSize      = fmt.Errorf("%w: invalid header size", ErrFormat)
	ErrUnexpectedEOF          = fmt.Errorf("%w: unexpected end of buffer", ErrFormat)
	ErrUnsupportedType        = fmt.Errorf("%w: unsupported data type", ErrFormat)
	ErrUnsupportedCompression = fmt.Errorf("%w: unsupported compression", ErrFormat)
	ErrResourceType           = fmt.Errorf("%w: unexpected resource type", ErrFormat)
)

// Layout errors.
var (
	ErrOffsetOutOfRange  = fmt.Errorf("%w: offset out of range", ErrLayout)
	ErrNoOwningTable     = fmt.Errorf("%w: position does not belong to any table", ErrLayout)
	ErrUnresolvedSchema  = fmt.Errorf("%w: unresolved schema offset", ErrLayout)
	ErrNullObjectPointer = fmt.Errorf("%w: null pointer for object cell", ErrLayout)
	ErrTableTypeMismatch = fmt.Errorf("%w: table data type does not match pointer", ErrLayout)
	ErrNestingTooDeep    = fmt.Errorf("%w: pointer nesting too deep", ErrLayout)
	ErrPointerBudget     = fmt.Errorf("%w: pointers revisit more data than the buffer holds", ErrLayout)
)

// Validation errors.
var (
	ErrValueOutOfRange   = fmt.Errorf("%w: value out of range", ErrValidation)
	ErrRowArity          = fmt.Errorf("%w: row does not match schema columns", ErrValidation)
	ErrColumnType        = fmt.Errorf("%w: cell type does not match column type", ErrValidation)
	ErrMixedVectorTypes  = fmt.Errorf("%w: vector children have mixed data types", ErrValidation)
	ErrInvalidArity      = fmt.Errorf("%w: wrong number of components", ErrValidation)
	ErrOwnerMismatch     = fmt.Errorf("%w: cell owner does not match its container", ErrValidation)
	ErrMissingSchema     = fmt.Errorf("%w: object cell has no schema", ErrValidation)
	ErrDuplicateColumn   = fmt.Errorf("%w: duplicate column name hash", ErrValidation)
	ErrInvalidColumn     = fmt.Errorf("%w: invalid column definition", ErrValidation)
	ErrInvalidName       = fmt.Errorf("%w: invalid name", ErrValidation)
	ErrDuplicateInstance = fmt.Errorf("%w: duplicate instance name", ErrValidation)
	ErrDuplicateKey      = fmt.Errorf("%w: duplicate string table key", ErrValidation)
	ErrInvalidTextNode   = fmt.Errorf("%w: invalid text node", ErrValidation)
)

// Encode contract errors.
var (
	ErrMissingTarget      = fmt.Errorf("%w: pointer cell encoded without a resolved target", ErrEncodeContract)
	ErrVersionNotWritable = fmt.Errorf("%w: document version cannot be written", ErrEncodeContract)
	ErrSchemaConflict     = fmt.Errorf("%w: two different schemas share one name", ErrEncodeContract)
	ErrUnplacedCell       = fmt.Errorf("%w: cell was not placed by the layout pass", ErrEncodeContract)
	ErrHashCollision      = fmt.Errorf("%w: name hash collision", ErrEncodeContract)
	ErrUnparsedInstance   = fmt.Errorf("%w: document holds instances the decoder skipped", ErrEncodeContract)
)
