package endian

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetLittleEndianEngine(t *testing.T) {
	engine := GetLittleEndianEngine()
	require.Implements(t, (*EndianEngine)(nil), engine)
	require.Equal(t, binary.LittleEndian, engine)

	b := make([]byte, 2)
	engine.PutUint16(b, 0x0102)
	require.Equal(t, []byte{0x02, 0x01}, b)
}

func TestGetBigEndianEngine(t *testing.T) {
	engine := GetBigEndianEngine()
	require.Equal(t, binary.BigEndian, engine)

	b := make([]byte, 2)
	engine.PutUint16(b, 0x0102)
	require.Equal(t, []byte{0x01, 0x02}, b)
}

func TestInt32(t *testing.T) {
	engine := GetLittleEndianEngine()
	b := make([]byte, 4)

	for _, v := range []int32{0, 1, -1, math.MinInt32, math.MaxInt32, -0x80} {
		PutInt32(engine, b, v)
		require.Equal(t, v, Int32(engine, b))
	}

	PutInt32(engine, b, math.MinInt32)
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x80}, b)
}

func TestFloat32(t *testing.T) {
	engine := GetLittleEndianEngine()
	b := make([]byte, 4)

	PutFloat32(engine, b, 1.0)
	require.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, b)
	require.InDelta(t, float32(1.0), Float32(engine, b), 0)

	PutFloat32(engine, b, -2.5)
	require.Equal(t, float32(-2.5), Float32(engine, b))
}
