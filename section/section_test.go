package section

import (
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
)

func TestHeader_RoundTrip(t *testing.T) {
	t.Run("version 0x100", func(t *testing.T) {
		h := NewHeader(Version100)
		h.TablePos = 32
		h.TableCount = 3
		h.SchemaPos = 128
		h.SchemaCount = 1

		w := cursor.NewWriter(nil)
		require.NoError(t, h.WriteTo(w))
		require.Equal(t, HeaderSize100, w.Len())
		require.Equal(t, HeaderSize100, h.Size())
		require.Equal(t, "DATA", string(w.Bytes()[:4]))

		parsed, err := ReadHeader(cursor.NewReader(w.Bytes()), true)
		require.NoError(t, err)
		require.Equal(t, h, parsed)
		require.True(t, parsed.Unused.IsAbsent())
	})

	t.Run("version 0x101 carries unused", func(t *testing.T) {
		h := NewHeader(Version101)
		h.TablePos = 32
		h.SchemaPos = 64
		h.Unused = mo.Some(uint32(0x1A2B))

		w := cursor.NewWriter(nil)
		require.NoError(t, h.WriteTo(w))
		require.Equal(t, HeaderSize101, w.Len())

		parsed, err := ReadHeader(cursor.NewReader(w.Bytes()), true)
		require.NoError(t, err)
		unused, ok := parsed.Unused.Get()
		require.True(t, ok)
		require.Equal(t, uint32(0x1A2B), unused)
		require.NoError(t, parsed.Validate())
	})

	t.Run("pointers are relative to the field end", func(t *testing.T) {
		h := NewHeader(Version100)
		h.TablePos = 32
		h.SchemaPos = 32

		w := cursor.NewWriter(nil)
		require.NoError(t, h.WriteTo(w))

		r := cursor.NewReader(w.Bytes())
		require.NoError(t, r.Seek(8))
		rel, _ := r.Int32()
		require.Equal(t, int32(32-12), rel)
		require.NoError(t, r.Seek(16))
		rel, _ = r.Int32()
		require.Equal(t, int32(32-20), rel)
	})
}

func TestReadHeader_Invalid(t *testing.T) {
	valid := func(t *testing.T) []byte {
		t.Helper()
		h := NewHeader(Version100)
		w := cursor.NewWriter(nil)
		require.NoError(t, h.WriteTo(w))

		return append([]byte(nil), w.Bytes()...)
	}

	t.Run("bad magic", func(t *testing.T) {
		data := valid(t)
		copy(data, "ATAD")

		_, err := ReadHeader(cursor.NewReader(data), true)
		require.ErrorIs(t, err, errs.ErrInvalidMagic)
		require.ErrorIs(t, err, errs.ErrFormat)
	})

	t.Run("bad magic without validation", func(t *testing.T) {
		data := valid(t)
		copy(data, "ATAD")

		h, err := ReadHeader(cursor.NewReader(data), false)
		require.NoError(t, err)
		require.Equal(t, "ATAD", string(h.Magic[:]))
		require.ErrorIs(t, h.Validate(), errs.ErrInvalidMagic)
	})

	t.Run("unsupported version", func(t *testing.T) {
		data := valid(t)
		data[4] = 0x02 // 0x102

		_, err := ReadHeader(cursor.NewReader(data), true)
		require.ErrorIs(t, err, errs.ErrUnsupportedVersion)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadHeader(cursor.NewReader([]byte("DA")), true)
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)

		_, err = ReadHeader(cursor.NewReader(valid(t)[:12]), true)
		require.ErrorIs(t, err, errs.ErrUnexpectedEOF)
	})

	t.Run("write rejects unknown version", func(t *testing.T) {
		h := NewHeader(0x200)
		err := h.WriteTo(cursor.NewWriter(nil))
		require.ErrorIs(t, err, errs.ErrVersionNotWritable)
		require.ErrorIs(t, err, errs.ErrEncodeContract)
	})
}

func TestTableInfo_RoundTrip(t *testing.T) {
	info := TableInfo{
		NamePos:   mo.Some(400),
		NameHash:  0xCAFEBABE,
		SchemaPos: mo.Some(64),
		DataType:  format.TypeObject,
		RowSize:   8,
		RowPos:    160,
		RowCount:  2,
	}

	w := cursor.NewWriter(nil)
	w.Seek(32)
	require.NoError(t, info.WriteTo(w))
	require.Equal(t, 32+TableInfoSize, w.Tell())

	r := cursor.NewReader(w.Bytes())
	require.NoError(t, r.Seek(32))
	parsed, err := ReadTableInfo(r)
	require.NoError(t, err)
	require.Equal(t, info, parsed)

	require.Equal(t, 176, parsed.End())
	require.True(t, parsed.Contains(160))
	require.True(t, parsed.Contains(175))
	require.False(t, parsed.Contains(176))
	require.False(t, parsed.Contains(159))
	require.Equal(t, 1, parsed.RowIndex(168))
}

func TestTableInfo_NullPointers(t *testing.T) {
	info := TableInfo{
		NamePos:   mo.None[int](),
		SchemaPos: mo.None[int](),
		DataType:  format.TypeFloat,
		RowSize:   4,
		RowPos:    64,
		RowCount:  5,
	}

	w := cursor.NewWriter(nil)
	require.NoError(t, info.WriteTo(w))

	r := cursor.NewReader(w.Bytes())
	first, _ := r.Int32()
	require.Equal(t, cursor.RelOffsetNull, first)

	require.NoError(t, r.Seek(0))
	parsed, err := ReadTableInfo(r)
	require.NoError(t, err)
	require.True(t, parsed.NamePos.IsAbsent())
	require.True(t, parsed.SchemaPos.IsAbsent())
	require.Equal(t, info, parsed)
}

func TestSchemaEntryAndColumn_RoundTrip(t *testing.T) {
	entry := SchemaEntry{
		NamePos:     mo.Some(512),
		NameHash:    0x11111111,
		SchemaHash:  0x22222222,
		SchemaSize:  12,
		ColumnPos:   120,
		ColumnCount: 2,
	}
	col := ColumnRecord{
		NamePos:   mo.Some(520),
		NameHash:  0x33333333,
		DataType:  format.TypeFloat3,
		Flags:     0x0001,
		Offset:    4,
		SchemaPos: mo.None[int](),
	}

	w := cursor.NewWriter(nil)
	w.Seek(96)
	require.NoError(t, entry.WriteTo(w))
	require.Equal(t, 96+SchemaEntrySize, w.Tell())
	require.NoError(t, col.WriteTo(w))
	require.Equal(t, 120+ColumnSize, w.Tell())

	r := cursor.NewReader(w.Bytes())
	require.NoError(t, r.Seek(96))
	parsedEntry, err := ReadSchemaEntry(r)
	require.NoError(t, err)
	require.Equal(t, entry, parsedEntry)

	parsedCol, err := ReadColumnRecord(r)
	require.NoError(t, err)
	require.Equal(t, col, parsedCol)
}

func TestSupportedVersion(t *testing.T) {
	require.True(t, SupportedVersion(Version100))
	require.True(t, SupportedVersion(Version101))
	require.False(t, SupportedVersion(0x102))
	require.False(t, SupportedVersion(0))
	require.Equal(t, 24, HeaderSize(Version100))
	require.Equal(t, 28, HeaderSize(Version101))
}
