// Package cursor provides positioned binary readers and writers for
// pointer-based formats.
//
// Every pointer in these formats is a signed 32-bit offset measured from the
// byte immediately after the pointer field itself. Reader.RelOffset and
// Writer.WriteRelOffset convert between that representation and absolute
// buffer positions so no caller ever does the arithmetic by hand.
package cursor

import (
	"bytes"
	"fmt"

	"github.com/arloliu/modkit/endian"
	"github.com/arloliu/modkit/errs"
)

// RelOffsetNull is the pointer value that means "no payload".
const RelOffsetNull int32 = -0x80000000

// Reader reads little-endian values from an in-memory buffer.
//
// Note: Reader is NOT thread-safe.
type Reader struct {
	data   []byte
	pos    int
	saved  []int
	engine endian.EndianEngine
}

// NewReader creates a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{
		data:   data,
		engine: endian.GetLittleEndianEngine(),
	}
}

// Len returns the total buffer length.
func (r *Reader) Len() int {
	return len(r.data)
}

// Tell returns the current absolute position.
func (r *Reader) Tell() int {
	return r.pos
}

// Seek moves to an absolute position. Seeking to the end is allowed.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return fmt.Errorf("%w: seek to %d in %d bytes", errs.ErrOffsetOutOfRange, pos, len(r.data))
	}
	r.pos = pos

	return nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int) error {
	return r.Seek(r.pos + n)
}

// Save pushes the current position so a later Restore can return to it.
func (r *Reader) Save() {
	r.saved = append(r.saved, r.pos)
}

// Restore pops the most recently saved position.
func (r *Reader) Restore() {
	if len(r.saved) == 0 {
		return
	}
	last := len(r.saved) - 1
	r.pos = r.saved[last]
	r.saved = r.saved[:last]
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: need %d bytes at %d, have %d", errs.ErrUnexpectedEOF, n, r.pos, len(r.data)-r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n

	return b, nil
}

// Bytes reads n raw bytes. The returned slice aliases the buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n)
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err //nolint: gosec
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint16(b), nil
}

func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err //nolint: gosec
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint32(b), nil
}

func (r *Reader) Int32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}

	return endian.Int32(r.engine, b), nil
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint64(b), nil
}

func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err //nolint: gosec
}

func (r *Reader) Float32() (float32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}

	return endian.Float32(r.engine, b), nil
}

// RelOffset reads a self-relative pointer and returns the absolute position
// it refers to. ok is false when the pointer is RelOffsetNull.
func (r *Reader) RelOffset() (target int, ok bool, err error) {
	off, err := r.Int32()
	if err != nil {
		return 0, false, err
	}
	if off == RelOffsetNull {
		return 0, false, nil
	}

	return r.pos + int(off), true, nil
}

// CString reads a null-terminated string starting at the current position
// and leaves the cursor after the terminator.
func (r *Reader) CString() (string, error) {
	if r.pos > len(r.data) {
		return "", errs.ErrUnexpectedEOF
	}
	end := bytes.IndexByte(r.data[r.pos:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at %d", errs.ErrUnexpectedEOF, r.pos)
	}
	s := string(r.data[r.pos : r.pos+end])
	r.pos += end + 1

	return s, nil
}

// CStringAt reads a null-terminated string at pos without moving the cursor.
func (r *Reader) CStringAt(pos int) (string, error) {
	if pos < 0 || pos >= len(r.data) {
		return "", fmt.Errorf("%w: string at %d in %d bytes", errs.ErrOffsetOutOfRange, pos, len(r.data))
	}

	r.Save()
	defer r.Restore()
	r.pos = pos

	return r.CString()
}
