package stbl

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/modkit/cell"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/internal/hash"
)

func sampleTable(t *testing.T) *StringTable {
	t.Helper()

	tbl := New()
	require.NoError(t, tbl.Add(0x12345678, "Hello"))
	require.NoError(t, tbl.Add(0x0BADF00D, "Sim crème brûlée"))
	_, err := tbl.AddString("Buy")
	require.NoError(t, err)

	return tbl
}

func TestStringTable_EncodeLayout(t *testing.T) {
	buf, err := sampleTable(t).Encode()
	require.NoError(t, err)

	require.Equal(t, "STBL", string(buf[:4]))
	require.Equal(t, Version, binary.LittleEndian.Uint16(buf[4:6]))
	require.Equal(t, byte(0), buf[6])
	require.Equal(t, uint64(3), binary.LittleEndian.Uint64(buf[7:15]))
	require.Equal(t, []byte{0, 0}, buf[15:17])

	values := len("Hello") + len("Sim crème brûlée") + len("Buy")
	require.Equal(t, uint32(values+3), binary.LittleEndian.Uint32(buf[17:21]))
	require.Len(t, buf, HeaderSize+3*entryHeaderSize+values)

	// first entry
	require.Equal(t, uint32(0x12345678), binary.LittleEndian.Uint32(buf[21:25]))
	require.Equal(t, byte(0), buf[25])
	require.Equal(t, uint16(5), binary.LittleEndian.Uint16(buf[26:28]))
	require.Equal(t, "Hello", string(buf[28:33]))
}

func TestStringTable_RoundTrip(t *testing.T) {
	tbl := sampleTable(t)
	tbl.SetCompressed(1)

	buf, err := tbl.Encode()
	require.NoError(t, err)

	decoded, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, tbl.Entries(), decoded.Entries())
	require.Equal(t, uint8(1), decoded.Compressed())

	again, err := decoded.Encode()
	require.NoError(t, err)
	require.Equal(t, buf, again)
}

func TestStringTable_Operations(t *testing.T) {
	tbl := sampleTable(t)
	require.Equal(t, 3, tbl.Len())

	v, ok := tbl.Get(0x12345678)
	require.True(t, ok)
	require.Equal(t, "Hello", v)

	v, ok = tbl.Get(hash.FNV32Exact("Buy"))
	require.True(t, ok)
	require.Equal(t, "Buy", v)

	require.ErrorIs(t, tbl.Add(0x12345678, "again"), errs.ErrDuplicateKey)
	_, err := tbl.AddString("Buy")
	require.ErrorIs(t, err, errs.ErrDuplicateKey)

	tbl.Set(0x12345678, "Hi")
	v, _ = tbl.Get(0x12345678)
	require.Equal(t, "Hi", v)
	require.Equal(t, 3, tbl.Len())

	tbl.Set(1, "new")
	require.Equal(t, 4, tbl.Len())
	require.Equal(t, uint32(1), tbl.Entries()[3].Key)

	require.True(t, tbl.Remove(0x0BADF00D))
	require.False(t, tbl.Remove(0x0BADF00D))
	_, ok = tbl.Get(0x0BADF00D)
	require.False(t, ok)
	v, _ = tbl.Get(1)
	require.Equal(t, "new", v)
}

func TestStringTable_Resolve(t *testing.T) {
	tbl := sampleTable(t)

	text, ok := tbl.Resolve(cell.NewLocalizationKey(0x12345678))
	require.True(t, ok)
	require.Equal(t, "Hello", text)

	_, ok = tbl.Resolve(cell.NewLocalizationKey(0xFFFFFFFF))
	require.False(t, ok)

	_, ok = tbl.Resolve(cell.NewString("Hello"))
	require.False(t, ok)
}

func TestStringTable_DuplicateKeysFromDecode(t *testing.T) {
	buf, err := sampleTable(t).Encode()
	require.NoError(t, err)

	// rewrite the second key to match the first
	second := HeaderSize + entryHeaderSize + len("Hello")
	binary.LittleEndian.PutUint32(buf[second:], 0x12345678)

	tbl, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())
	v, _ := tbl.Get(0x12345678)
	require.Equal(t, "Hello", v)

	_, err = tbl.Encode()
	require.ErrorIs(t, err, errs.ErrDuplicateKey)

	require.True(t, tbl.Remove(0x12345678))
	_, err = tbl.Encode()
	require.NoError(t, err)
}

func TestStringTable_ValueTooLong(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Add(1, strings.Repeat("x", 1<<16)))

	_, err := tbl.Encode()
	require.ErrorIs(t, err, errs.ErrValueOutOfRange)
}

func TestDecode_Errors(t *testing.T) {
	buf, err := sampleTable(t).Encode()
	require.NoError(t, err)

	t.Run("magic", func(t *testing.T) {
		bad := append([]byte("LBTS"), buf[4:]...)
		_, err := Decode(bad)
		require.ErrorIs(t, err, errs.ErrInvalidMagic)
	})

	t.Run("version", func(t *testing.T) {
		bad := append([]byte(nil), buf...)
		binary.LittleEndian.PutUint16(bad[4:], 4)
		_, err := Decode(bad)
		require.ErrorIs(t, err, errs.ErrUnsupportedVersion)
	})

	t.Run("count", func(t *testing.T) {
		bad := append([]byte(nil), buf...)
		binary.LittleEndian.PutUint64(bad[7:], 1<<40)
		_, err := Decode(bad)
		require.ErrorIs(t, err, errs.ErrUnexpectedEOF)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(buf[:len(buf)-2])
		require.Error(t, err)
	})

	t.Run("short", func(t *testing.T) {
		_, err := Decode([]byte("ST"))
		require.Error(t, err)
	})
}

func TestEmptyTable(t *testing.T) {
	buf, err := New().Encode()
	require.NoError(t, err)
	require.Len(t, buf, HeaderSize)

	tbl, err := Decode(buf)
	require.NoError(t, err)
	require.Zero(t, tbl.Len())
}
