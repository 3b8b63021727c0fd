package pool

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer_ZeroExtend(t *testing.T) {
	bb := NewByteBuffer(4)
	bb.ZeroExtend(3)
	require.Equal(t, []byte{0, 0, 0}, bb.Bytes())

	bb.ZeroExtend(0)
	bb.ZeroExtend(-1)
	require.Equal(t, 3, bb.Len())
}

func TestByteBuffer_ZeroExtend_ClearsStaleBytes(t *testing.T) {
	bb := NewByteBuffer(8)
	_, _ = bb.Write([]byte{9, 9, 9, 9, 9, 9})
	bb.Reset()

	bb.ZeroExtend(6)
	require.Equal(t, make([]byte, 6), bb.Bytes())
}

func TestByteBuffer_WriteAt(t *testing.T) {
	t.Run("inside length", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.ZeroExtend(4)
		bb.WriteAt([]byte{1, 2}, 1)
		require.Equal(t, []byte{0, 1, 2, 0}, bb.Bytes())
	})

	t.Run("past length extends with zeros", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.WriteAt([]byte{7}, 3)
		require.Equal(t, []byte{0, 0, 0, 7}, bb.Bytes())
	})
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("sufficient capacity", func(t *testing.T) {
		bb := NewByteBuffer(64)
		bb.Grow(10)
		require.Equal(t, 64, bb.Cap())
	})

	t.Run("small buffer grows by default size", func(t *testing.T) {
		bb := NewByteBuffer(1)
		_, _ = bb.Write([]byte{1})
		bb.Grow(2)
		require.GreaterOrEqual(t, bb.Cap(), 1+DocumentBufferDefaultSize)
		require.Equal(t, []byte{1}, bb.Bytes())
	})

	t.Run("large request", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(DocumentBufferDefaultSize * 3)
		require.GreaterOrEqual(t, bb.Cap(), DocumentBufferDefaultSize*3)
	})
}

type failingWriter struct{}

var errWrite = errors.New("write failed")

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(0)
	_, _ = bb.Write([]byte("DATA"))

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	require.Equal(t, "DATA", out.String())

	_, err = bb.WriteTo(failingWriter{})
	require.ErrorIs(t, err, errWrite)
}

func TestByteBufferPool(t *testing.T) {
	t.Run("reset on put", func(t *testing.T) {
		p := NewByteBufferPool(16, 0)
		bb := p.Get()
		_, _ = bb.Write([]byte{1, 2, 3})
		p.Put(bb)

		again := p.Get()
		require.Equal(t, 0, again.Len())
	})

	t.Run("nil put is ignored", func(t *testing.T) {
		p := NewByteBufferPool(16, 0)
		require.NotPanics(t, func() { p.Put(nil) })
	})

	t.Run("oversized buffers are dropped", func(t *testing.T) {
		p := NewByteBufferPool(16, 32)
		bb := p.Get()
		bb.Grow(1024)
		require.NotPanics(t, func() { p.Put(bb) })
	})

	t.Run("default document pool", func(t *testing.T) {
		bb := GetDocumentBuffer()
		require.NotNil(t, bb)
		require.Equal(t, 0, bb.Len())
		PutDocumentBuffer(bb)
	})
}
