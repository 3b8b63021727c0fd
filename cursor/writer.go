package cursor

import (
	"fmt"
	"math"

	"github.com/arloliu/modkit/endian"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/internal/pool"
)

// Writer writes little-endian values at a movable position, zero-filling any
// gap between the end of the buffer and the write position.
//
// Note: Writer is NOT thread-safe.
type Writer struct {
	buf    *pool.ByteBuffer
	pos    int
	engine endian.EndianEngine
	tmp    [8]byte
}

// NewWriter creates a Writer over buf. A nil buf allocates a fresh buffer.
func NewWriter(buf *pool.ByteBuffer) *Writer {
	if buf == nil {
		buf = pool.NewByteBuffer(pool.DocumentBufferDefaultSize)
	}

	return &Writer{
		buf:    buf,
		engine: endian.GetLittleEndianEngine(),
	}
}

// Tell returns the current absolute position.
func (w *Writer) Tell() int {
	return w.pos
}

// Len returns the number of bytes written so far, including padding.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Seek moves to an absolute position; the buffer is extended lazily on write.
func (w *Writer) Seek(pos int) {
	w.pos = pos
}

// Skip advances the position by n zero bytes.
func (w *Writer) Skip(n int) {
	w.pos += n
	if w.pos > w.buf.Len() {
		w.buf.ZeroExtend(w.pos - w.buf.Len())
	}
}

// Bytes returns the written buffer. It aliases the writer's storage.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) put(b []byte) {
	w.buf.WriteAt(b, w.pos)
	w.pos += len(b)
}

func (w *Writer) WriteBytes(b []byte) {
	w.put(b)
}

func (w *Writer) WriteUint8(v uint8) {
	w.tmp[0] = v
	w.put(w.tmp[:1])
}

func (w *Writer) WriteInt8(v int8) {
	w.WriteUint8(uint8(v)) //nolint: gosec
}

func (w *Writer) WriteUint16(v uint16) {
	w.engine.PutUint16(w.tmp[:2], v)
	w.put(w.tmp[:2])
}

func (w *Writer) WriteInt16(v int16) {
	w.WriteUint16(uint16(v)) //nolint: gosec
}

func (w *Writer) WriteUint32(v uint32) {
	w.engine.PutUint32(w.tmp[:4], v)
	w.put(w.tmp[:4])
}

func (w *Writer) WriteInt32(v int32) {
	endian.PutInt32(w.engine, w.tmp[:4], v)
	w.put(w.tmp[:4])
}

func (w *Writer) WriteUint64(v uint64) {
	w.engine.PutUint64(w.tmp[:8], v)
	w.put(w.tmp[:8])
}

func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v)) //nolint: gosec
}

func (w *Writer) WriteFloat32(v float32) {
	endian.PutFloat32(w.engine, w.tmp[:4], v)
	w.put(w.tmp[:4])
}

// WriteCString writes s followed by a null terminator.
func (w *Writer) WriteCString(s string) {
	w.put([]byte(s))
	w.WriteUint8(0)
}

// WriteRelOffset writes the pointer from the end of this field to target.
func (w *Writer) WriteRelOffset(target int) error {
	rel := target - (w.pos + 4)
	if rel < math.MinInt32+1 || rel > math.MaxInt32 {
		return fmt.Errorf("%w: pointer from %d to %d does not fit in 32 bits", errs.ErrOffsetOutOfRange, w.pos, target)
	}
	w.WriteInt32(int32(rel))

	return nil
}

// WriteNullOffset writes RelOffsetNull.
func (w *Writer) WriteNullOffset() {
	w.WriteInt32(RelOffsetNull)
}
