package modkit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/modkit/cell"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/resource"
	"github.com/arloliu/modkit/schema"
	"github.com/arloliu/modkit/simdata"
)

func originDocument(t *testing.T) *simdata.Document {
	t.Helper()

	point := schema.MustNew("Point", 0x1234,
		schema.NewColumn("x", format.TypeFloat, 0),
		schema.NewColumn("y", format.TypeFloat, 0),
	)
	doc := NewDocument()
	require.NoError(t, doc.AddInstance("Origin", cell.NewObject(point, map[string]cell.Cell{
		"x": cell.NewNumber(format.TypeFloat, 0),
		"y": cell.NewNumber(format.TypeFloat, 0),
	})))

	return doc
}

func TestEncodeDecode(t *testing.T) {
	doc := originDocument(t)

	data, err := Encode(doc)
	require.NoError(t, err)
	require.Equal(t, "DATA", string(data[:4]))

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.True(t, doc.Equals(decoded))

	again, err := Encode(decoded)
	require.NoError(t, err)
	require.Equal(t, data, again)
}

func TestNewDocument(t *testing.T) {
	require.Equal(t, simdata.Version101, NewDocument().Version())
	require.Equal(t, simdata.Version100, NewDocument(simdata.WithVersion(simdata.Version100)).Version())
}

func TestHash(t *testing.T) {
	require.Equal(t, Hash("Origin"), Hash("origin"))
	require.NotEqual(t, Hash("x"), Hash("y"))
	// FNV-1 32 offset basis
	require.Equal(t, uint32(0x811C9DC5), Hash(""))
}

func TestLoadResource(t *testing.T) {
	data, err := Encode(originDocument(t))
	require.NoError(t, err)

	res, err := LoadResource(resource.Entry{
		Key:         format.ResourceKey{Type: resource.TypeSimData, Instance: 42},
		Compression: format.CompressionNone,
		Data:        data,
	})
	require.NoError(t, err)
	require.Len(t, res.Document().Instances(), 1)
}
