package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/hash"
	"github.com/arloliu/modkit/notify"
)

func pointSchema(t *testing.T) *Schema {
	t.Helper()

	s, err := New("Point", hash.FNV32("Point"),
		NewColumn("x", format.TypeFloat, 0),
		NewColumn("y", format.TypeFloat, 0),
	)
	require.NoError(t, err)

	return s
}

func TestSchema_PointLayout(t *testing.T) {
	s := pointSchema(t)

	rowSize, err := s.RowSize()
	require.NoError(t, err)
	require.Equal(t, uint32(8), rowSize)

	align, err := s.Alignment()
	require.NoError(t, err)
	require.Equal(t, uint32(4), align)

	x, ok := s.Column("x")
	require.True(t, ok)
	y, ok := s.Column("y")
	require.True(t, ok)

	// single-byte names hash one apart, so the serialized order is fixed
	require.Equal(t, y.NameHash()+1, x.NameHash())
	require.Equal(t, uint32(0), y.Offset())
	require.Equal(t, uint32(4), x.Offset())
}

func TestSchema_SerializedOrder(t *testing.T) {
	names := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"}
	s, err := New("Ordered", 1)
	require.NoError(t, err)
	for _, n := range names {
		require.NoError(t, s.AddColumn(NewColumn(n, format.TypeUInt8, 0)))
	}

	cols, err := s.SerializedColumns()
	require.NoError(t, err)
	require.Len(t, cols, len(names))
	for i := 1; i < len(cols); i++ {
		require.Less(t, cols[i-1].NameHash(), cols[i].NameHash())
		require.Equal(t, cols[i-1].Offset()+1, cols[i].Offset())
	}

	// logical order is untouched
	logical := s.Columns()
	for i, n := range names {
		require.Equal(t, n, logical[i].Name())
	}
}

func TestSchema_MixedAlignment(t *testing.T) {
	s := MustNew("Mixed", 7,
		NewColumn("flag", format.TypeInt8, 0),
		NewColumn("big", format.TypeInt64, 0),
	)

	rowSize, err := s.RowSize()
	require.NoError(t, err)
	require.Equal(t, uint32(16), rowSize)

	align, err := s.Alignment()
	require.NoError(t, err)
	require.Equal(t, uint32(8), align)

	big, _ := s.Column("big")
	require.Zero(t, big.Offset()%8)
}

func TestSchema_RecursiveSlots(t *testing.T) {
	s := MustNew("Holder", 9,
		NewColumn("obj", format.TypeObject, 0),
		NewColumn("vec", format.TypeVector, 0),
		NewColumn("var", format.TypeVariant, 0),
		NewColumn("key", format.TypeResourceKey, 0),
	)

	rowSize, err := s.RowSize()
	require.NoError(t, err)
	require.Zero(t, rowSize%8)
	require.GreaterOrEqual(t, rowSize, uint32(4+8+8+16))

	cols, err := s.SerializedColumns()
	require.NoError(t, err)
	for _, c := range cols {
		align, _ := format.Alignment(c.DataType())
		require.Zero(t, c.Offset()%align, c.Name())
	}
}

func TestSchema_LayoutUnsupportedType(t *testing.T) {
	s := MustNew("Bad", 1, NewColumn("u", format.TypeUndefined, 0))

	_, err := s.RowSize()
	require.ErrorIs(t, err, errs.ErrUnsupportedType)
	require.ErrorIs(t, s.Validate(), errs.ErrInvalidColumn)
}

func TestSchema_Mutation(t *testing.T) {
	t.Run("rename rehashes", func(t *testing.T) {
		s := pointSchema(t)
		s.SetName("Vec2")
		require.Equal(t, "Vec2", s.Name())
		require.Equal(t, hash.FNV32("Vec2"), s.NameHash())
	})

	t.Run("column changes invalidate the layout", func(t *testing.T) {
		s := pointSchema(t)
		rowSize, err := s.RowSize()
		require.NoError(t, err)
		require.Equal(t, uint32(8), rowSize)

		x, _ := s.Column("x")
		x.SetDataType(format.TypeFloat3)

		rowSize, err = s.RowSize()
		require.NoError(t, err)
		require.Equal(t, uint32(16), rowSize)
	})

	t.Run("changes reach the owner", func(t *testing.T) {
		s := pointSchema(t)
		root := &notify.Flag{}
		s.SetOwner(root)

		y, _ := s.Column("y")
		y.SetFlags(2)
		require.True(t, root.Dirty())

		root.Clear()
		require.True(t, s.RemoveColumn("y"))
		require.True(t, root.Dirty())
		require.False(t, s.RemoveColumn("y"))
		require.Equal(t, 1, s.Len())
	})

	t.Run("duplicate column name", func(t *testing.T) {
		s := pointSchema(t)
		err := s.AddColumn(NewColumn("x", format.TypeInt32, 0))
		require.ErrorIs(t, err, errs.ErrInvalidColumn)

		_, err = New("Dup", 1, NewColumn("a", format.TypeInt8, 0), NewColumn("a", format.TypeInt8, 0))
		require.Error(t, err)
	})
}

func TestSchema_Validate(t *testing.T) {
	require.NoError(t, pointSchema(t).Validate())

	wide := MustNew("Wide", 1, NewColumn("f", format.TypeInt32, 0x10000))
	require.ErrorIs(t, wide.Validate(), errs.ErrInvalidColumn)

	clash := Restore("Clash", 1, 2, 2, []*Column{
		RestoreColumn("a", 0xAAAA, format.TypeInt8, 0, 0),
		RestoreColumn("b", 0xAAAA, format.TypeInt8, 0, 1),
	})
	err := clash.Validate()
	require.ErrorIs(t, err, errs.ErrDuplicateColumn)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestSchema_Restore(t *testing.T) {
	s := Restore("Stored", 0x1111, 0x2222, 12, []*Column{
		RestoreColumn("b", 0x20, format.TypeInt32, 1, 8),
		RestoreColumn("a", 0x10, format.TypeFloat2, 0, 0),
	})

	require.Equal(t, uint32(0x1111), s.NameHash())
	require.Equal(t, uint32(0x2222), s.Hash())

	rowSize, err := s.RowSize()
	require.NoError(t, err)
	require.Equal(t, uint32(12), rowSize)

	cols, err := s.SerializedColumns()
	require.NoError(t, err)
	require.Equal(t, "a", cols[0].Name())
	require.Equal(t, uint32(8), cols[1].Offset())

	// a fresh layout recomputes from the column types
	require.NoError(t, s.Layout())
	rowSize, _ = s.RowSize()
	require.Equal(t, uint32(12), rowSize)
}

func TestSchema_EqualsAndClone(t *testing.T) {
	a := pointSchema(t)
	b := MustNew("Point", hash.FNV32("Point"),
		NewColumn("y", format.TypeFloat, 0),
		NewColumn("x", format.TypeFloat, 0),
	)
	require.True(t, a.Equals(b), "column order must not matter")

	clone := a.Clone()
	require.True(t, a.Equals(clone))
	require.NotSame(t, a, clone)

	col, _ := clone.Column("x")
	col.SetDataType(format.TypeInt32)
	require.False(t, a.Equals(clone))

	orig, _ := a.Column("x")
	require.Equal(t, format.TypeFloat, orig.DataType())

	require.False(t, a.Equals(nil))
	require.False(t, a.Equals(MustNew("Point", 0)))
}
