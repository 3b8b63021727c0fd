package cell

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/schema"
)

func resolverFor(schemas ...*schema.Schema) ParseOption {
	return WithSchemaResolver(func(name string) (*schema.Schema, bool) {
		for _, s := range schemas {
			if s.Name() == name {
				return s, true
			}
		}

		return nil, false
	})
}

func TestToTextNode_Tags(t *testing.T) {
	s := pointSchema(t)

	el := NewNumber(format.TypeFloat, 1.5).ToTextNode(WithName("speed"))
	require.Equal(t, TagValue, el.Tag)
	require.Equal(t, "speed", el.SelectAttrValue(AttrName, ""))
	require.Equal(t, "Float", el.SelectAttrValue(AttrType, ""))
	require.Equal(t, "1.5", el.Text())

	el = point(t, s, 1, 2).ToTextNode(WithName("Origin"))
	require.Equal(t, TagObject, el.Tag)
	require.Equal(t, "Point", el.SelectAttrValue(AttrSchema, ""))
	children := el.ChildElements()
	require.Len(t, children, 2)
	require.Equal(t, "x", children[0].SelectAttrValue(AttrName, ""))
	require.Nil(t, children[0].SelectAttr(AttrType), "row entries take their type from the schema")

	el = MustVector(NewBoolean(true)).ToTextNode(WithType(false))
	require.Equal(t, TagVector, el.Tag)
	require.Nil(t, el.SelectAttr(AttrType))
	require.Equal(t, "Boolean", el.ChildElements()[0].SelectAttrValue(AttrType, ""))

	el = NewVariant(0x1234, NewBoolean(true)).ToTextNode()
	require.Equal(t, TagVariant, el.Tag)
	require.Equal(t, "0x00001234", el.SelectAttrValue(AttrVariant, ""))
	require.Len(t, el.ChildElements(), 1)

	require.Equal(t, "0xDEADBEEF", NewLocalizationKey(0xDEADBEEF).ToTextNode().Text())
}

func TestTextNode_RoundTrip(t *testing.T) {
	s := pointSchema(t)
	holder := schema.MustNew("Holder", 77,
		schema.NewColumn("flag", format.TypeBoolean, 0),
		schema.NewColumn("label", format.TypeString, 0),
		schema.NewColumn("initial", format.TypeCharacter, 0),
		schema.NewColumn("small", format.TypeInt8, 0),
		schema.NewColumn("count", format.TypeUInt32, 0),
		schema.NewColumn("ratio", format.TypeFloat, 0),
		schema.NewColumn("big", format.TypeInt64, 0),
		schema.NewColumn("id", format.TypeUInt64, 0),
		schema.NewColumn("set", format.TypeTableSetReference, 0),
		schema.NewColumn("tag", format.TypeHashedString, 0),
		schema.NewColumn("odd", format.TypeHashedString, 0),
		schema.NewColumn("pos", format.TypeFloat3, 0),
		schema.NewColumn("key", format.TypeResourceKey, 0),
		schema.NewColumn("loc", format.TypeLocalizationKey, 0),
		schema.NewColumn("origin", format.TypeObject, 0),
		schema.NewColumn("points", format.TypeVector, 0),
		schema.NewColumn("nested", format.TypeVector, 0),
		schema.NewColumn("any", format.TypeVariant, 0),
		schema.NewColumn("none", format.TypeVariant, 0),
	)

	obj := NewObject(holder, map[string]Cell{
		"flag":    NewBoolean(true),
		"label":   NewString("  spaced <text> & more "),
		"initial": NewCharacter('Z'),
		"small":   NewNumber(format.TypeInt8, -5),
		"count":   NewNumber(format.TypeUInt32, 4000000000),
		"ratio":   NewNumber(format.TypeFloat, 0.1),
		"big":     NewInt64(-1 << 40),
		"id":      NewUInt64(1 << 63),
		"set":     NewTableSetReference(99),
		"tag":     NewHashedString("trait_Happy"),
		"odd":     NewHashedStringWithHash("custom", 0x1234),
		"pos":     NewFloat3(1.25, -2, 3e10),
		"key":     NewResourceKey(format.ResourceKey{Type: 0x545AC67A, Group: 0x80000000, Instance: 0xFEDCBA9876543210}),
		"loc":     NewLocalizationKey(0xCAFEF00D),
		"origin":  point(t, s, 0, 0),
		"points":  MustVector(point(t, s, 1, 2), point(t, s, 3, 4)),
		"nested":  MustVector(MustVector(NewString("a")), NewEmptyVector()),
		"any":     NewVariant(0x1234, NewBoolean(true)),
		"none":    NewVariant(0x5678, nil),
	})
	require.NoError(t, obj.Validate())

	doc := etree.NewDocument()
	doc.SetRoot(obj.ToTextNode(WithName("Everything")))
	text, err := doc.WriteToString()
	require.NoError(t, err)

	parsedDoc := etree.NewDocument()
	require.NoError(t, parsedDoc.ReadFromString(text))

	parsed, err := ParseTextNode(parsedDoc.Root(), resolverFor(s, holder))
	require.NoError(t, err)
	require.NoError(t, parsed.Validate())
	require.True(t, obj.Equals(parsed), text)
}

func TestParseTextNode_Errors(t *testing.T) {
	s := pointSchema(t)

	cases := []struct {
		name string
		xml  string
		opts []ParseOption
	}{
		{"value without type", `<T>1</T>`, nil},
		{"unknown type", `<T type="Quaternion">1</T>`, nil},
		{"bad bool", `<T type="Boolean">maybe</T>`, nil},
		{"bad character", `<T type="Character">ab</T>`, nil},
		{"bad arity", `<T type="Float2">1,2,3</T>`, nil},
		{"bad key", `<T type="ResourceKey">nope</T>`, nil},
		{"object without resolver", `<U schema="Point"/>`, nil},
		{"unknown schema", `<U schema="Nope"/>`, []ParseOption{resolverFor(s)}},
		{"object without schema", `<U/>`, []ParseOption{resolverFor(s)}},
		{"unnamed row entry", `<U schema="Point"><T type="Float">1</T></U>`, []ParseOption{resolverFor(s)}},
		{"scalar in vector tag", `<L type="Int32">1</L>`, nil},
		{"two variant children", `<V variant="1"><T type="Boolean">true</T><T type="Boolean">true</T></V>`, nil},
		{"bad variant hash", `<V variant="zz"/>`, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := etree.NewDocument()
			require.NoError(t, doc.ReadFromString(tc.xml))

			_, err := ParseTextNode(doc.Root(), tc.opts...)
			require.ErrorIs(t, err, errs.ErrInvalidTextNode)
		})
	}

	t.Run("mixed vector", func(t *testing.T) {
		doc := etree.NewDocument()
		require.NoError(t, doc.ReadFromString(`<L><T type="Boolean">1</T><T type="Int8">1</T></L>`))

		_, err := ParseTextNode(doc.Root())
		require.ErrorIs(t, err, errs.ErrMixedVectorTypes)
	})
}

func TestParseTextNode_TypeHint(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<T>0x10</T>`))

	c, err := ParseTextNode(doc.Root(), WithTypeHint(format.TypeUInt16))
	require.NoError(t, err)
	require.True(t, NewNumber(format.TypeUInt16, 16).Equals(c))
}
