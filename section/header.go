package section

import (
	"fmt"

	"github.com/samber/mo"

	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
)

// Header represents the fixed-size header at the start of a SimData buffer.
//
// Pointer fields are held as absolute positions; on disk they are stored
// relative to the end of their own field.
type Header struct {
	// Magic is the raw tag, "DATA" in a valid buffer.
	//
	// Offset: 0, Size: 4 bytes
	Magic [4]byte

	// Version is Version100 or Version101.
	//
	// Offset: 4, Size: 4 bytes
	Version uint32

	// TablePos is the absolute position of the table directory.
	//
	// Offset: 8, Size: 4 bytes (relative pointer)
	TablePos int

	// TableCount is the number of table directory entries.
	//
	// Offset: 12, Size: 4 bytes
	TableCount int32

	// SchemaPos is the absolute position of the schema directory.
	//
	// Offset: 16, Size: 4 bytes (relative pointer)
	SchemaPos int

	// SchemaCount is the number of schema directory entries.
	//
	// Offset: 20, Size: 4 bytes
	SchemaCount int32

	// Unused is only present for Version101 and later.
	//
	// Offset: 24, Size: 4 bytes
	Unused mo.Option[uint32]
}

// NewHeader creates a header for version with the magic tag set.
func NewHeader(version uint32) Header {
	h := Header{Version: version}
	copy(h.Magic[:], Magic)

	return h
}

// Size returns the encoded size of the header.
func (h Header) Size() int {
	return HeaderSize(h.Version)
}

// Validate checks the magic tag and version.
func (h Header) Validate() error {
	if string(h.Magic[:]) != Magic {
		return fmt.Errorf("%w: got %q, want %q", errs.ErrInvalidMagic, string(h.Magic[:]), Magic)
	}
	if !SupportedVersion(h.Version) {
		return fmt.Errorf("%w: 0x%X", errs.ErrUnsupportedVersion, h.Version)
	}

	return nil
}

// ReadHeader reads a header at the reader's current position.
//
// When validate is false the fields are read positionally and the magic tag
// and version are not checked; the unused field is read whenever the version
// field claims 0x101 or later.
//
// Returns:
//   - Header: parsed header
//   - error: ErrUnexpectedEOF, ErrInvalidMagic or ErrUnsupportedVersion
func ReadHeader(r *cursor.Reader, validate bool) (Header, error) {
	var h Header

	magic, err := r.Bytes(4)
	if err != nil {
		return h, fmt.Errorf("%w: %w", errs.ErrInvalidHeaderSize, err)
	}
	copy(h.Magic[:], magic)

	if validate && string(h.Magic[:]) != Magic {
		return h, fmt.Errorf("%w: got %q, want %q", errs.ErrInvalidMagic, string(h.Magic[:]), Magic)
	}

	if h.Version, err = r.Uint32(); err != nil {
		return h, err
	}
	if validate && !SupportedVersion(h.Version) {
		return h, fmt.Errorf("%w: 0x%X", errs.ErrUnsupportedVersion, h.Version)
	}

	if h.TablePos, _, err = r.RelOffset(); err != nil {
		return h, err
	}
	if h.TableCount, err = r.Int32(); err != nil {
		return h, err
	}
	if h.SchemaPos, _, err = r.RelOffset(); err != nil {
		return h, err
	}
	if h.SchemaCount, err = r.Int32(); err != nil {
		return h, err
	}

	if h.Version >= Version101 {
		unused, err := r.Uint32()
		if err != nil {
			return h, err
		}
		h.Unused = mo.Some(unused)
	}

	return h, nil
}

// WriteTo writes the header at the writer's current position.
func (h Header) WriteTo(w *cursor.Writer) error {
	if !SupportedVersion(h.Version) {
		return fmt.Errorf("%w: 0x%X", errs.ErrVersionNotWritable, h.Version)
	}

	w.WriteBytes(h.Magic[:])
	w.WriteUint32(h.Version)
	if err := w.WriteRelOffset(h.TablePos); err != nil {
		return err
	}
	w.WriteInt32(h.TableCount)
	if err := w.WriteRelOffset(h.SchemaPos); err != nil {
		return err
	}
	w.WriteInt32(h.SchemaCount)

	if h.Version >= Version101 {
		w.WriteUint32(h.Unused.OrElse(0))
	}

	return nil
}
