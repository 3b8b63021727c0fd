package resource

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arloliu/modkit/cell"
	"github.com/arloliu/modkit/compress"
	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/hash"
	"github.com/arloliu/modkit/schema"
	"github.com/arloliu/modkit/section"
	"github.com/arloliu/modkit/simdata"
	"github.com/arloliu/modkit/stbl"
)

var tuningKey = format.ResourceKey{Type: TypeSimData, Group: 0x0017E8F6, Instance: 0x00000000000249E6}

func tuningDocument(t *testing.T) *simdata.Document {
	t.Helper()

	s := schema.MustNew("Buff", 0x1F2E3D4C,
		schema.NewColumn("name", format.TypeString, 0),
		schema.NewColumn("duration", format.TypeFloat, 0),
		schema.NewColumn("tooltip", format.TypeLocalizationKey, 0),
	)
	doc := simdata.NewDocument(simdata.WithUnused(0x4D))
	require.NoError(t, doc.AddInstance("buff_Happy", cell.NewObject(s, map[string]cell.Cell{
		"name":     cell.NewString("Happy"),
		"duration": cell.NewNumber(format.TypeFloat, 240),
		"tooltip":  cell.NewLocalizationKey(0x12345678),
	})))

	return doc
}

func storedEntry(t *testing.T, compression format.CompressionType) Entry {
	t.Helper()

	raw, err := simdata.Encode(tuningDocument(t))
	require.NoError(t, err)
	codec, err := compress.GetCodec(compression)
	require.NoError(t, err)
	data, err := codec.Compress(raw)
	require.NoError(t, err)

	return Entry{Key: tuningKey, Compression: compression, Data: data}
}

func TestLoadSimData(t *testing.T) {
	for _, compression := range []format.CompressionType{format.CompressionNone, format.CompressionZlib} {
		t.Run(compression.String(), func(t *testing.T) {
			entry := storedEntry(t, compression)

			res, err := LoadSimData(entry)
			require.NoError(t, err)
			require.False(t, res.Changed())
			require.Equal(t, tuningKey, res.Key())
			require.True(t, tuningDocument(t).Equals(res.Document()))

			// an unchanged resource is written back as stored
			out, err := res.Entry()
			require.NoError(t, err)
			require.Equal(t, entry, out)
		})
	}
}

func TestSimData_ChangeTracking(t *testing.T) {
	entry := storedEntry(t, format.CompressionZlib)
	res, err := LoadSimData(entry)
	require.NoError(t, err)

	before, err := res.Fingerprint()
	require.NoError(t, err)

	obj, ok := res.Document().Instance("buff_Happy")
	require.True(t, ok)
	obj.Set("duration", cell.NewNumber(format.TypeFloat, 480))
	require.True(t, res.Changed())

	after, err := res.Fingerprint()
	require.NoError(t, err)
	require.NotEqual(t, before, after)
	require.False(t, res.Changed())

	out, err := res.Entry()
	require.NoError(t, err)
	require.NotEqual(t, entry.Data, out.Data)

	reloaded, err := LoadSimData(out)
	require.NoError(t, err)
	require.True(t, res.Document().Equals(reloaded.Document()))

	raw, err := res.Bytes()
	require.NoError(t, err)
	require.Equal(t, hash.Fingerprint(raw), after)
}

func TestNewSimData(t *testing.T) {
	res, err := NewSimData(tuningKey, format.CompressionZlib, tuningDocument(t))
	require.NoError(t, err)
	require.True(t, res.Changed())

	out, err := res.Entry()
	require.NoError(t, err)
	require.False(t, res.Changed())
	require.Equal(t, format.CompressionZlib, out.Compression)

	loaded, err := LoadSimData(out)
	require.NoError(t, err)
	require.True(t, res.Document().Equals(loaded.Document()))
}

func TestLoadSimData_Errors(t *testing.T) {
	entry := storedEntry(t, format.CompressionZlib)

	wrongType := entry
	wrongType.Key.Type = TypeStringTable
	_, err := LoadSimData(wrongType)
	require.ErrorIs(t, err, errs.ErrResourceType)

	_, err = LoadSimData(wrongType, WithAnyType())
	require.NoError(t, err)

	unknown := entry
	unknown.Compression = format.CompressionType(0x7F)
	_, err = LoadSimData(unknown)
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)

	corrupt := entry
	corrupt.Data = []byte("not zlib")
	_, err = LoadSimData(corrupt)
	require.Error(t, err)

	garbage := Entry{Key: tuningKey, Compression: format.CompressionNone, Data: []byte("ATADxxxxxxxxxxxxxxxxxxxxxxxxxxxx")}
	_, err = LoadSimData(garbage)
	require.ErrorIs(t, err, errs.ErrInvalidMagic)
}

func TestLoadSimData_DecoderOptions(t *testing.T) {
	entry := storedEntry(t, format.CompressionNone)
	copy(entry.Data, "ATAD")

	core, logs := observer.New(zap.DebugLevel)
	res, err := LoadSimData(entry,
		WithDecoderOptions(simdata.WithRecovery()),
		WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Len(t, res.Document().Instances(), 1)
	require.Equal(t, 1, logs.FilterMessage("resource unpacked").Len())
}

func TestStringTableResource(t *testing.T) {
	tbl := stbl.New()
	require.NoError(t, tbl.Add(0x12345678, "Happy"))
	key := format.ResourceKey{Type: TypeStringTable, Instance: 1}

	entry, err := StringTableEntry(key, format.CompressionZlib, tbl)
	require.NoError(t, err)

	loaded, err := LoadStringTable(entry)
	require.NoError(t, err)
	require.Equal(t, tbl.Entries(), loaded.Entries())

	// the table resolves the tooltip of the SimData resource
	res, err := LoadSimData(storedEntry(t, format.CompressionZlib))
	require.NoError(t, err)
	obj, _ := res.Document().Instance("buff_Happy")
	tooltip, _ := obj.Get("tooltip")
	text, ok := loaded.Resolve(tooltip)
	require.True(t, ok)
	require.Equal(t, "Happy", text)

	_, err = LoadStringTable(Entry{Key: tuningKey, Data: entry.Data, Compression: format.CompressionZlib})
	require.ErrorIs(t, err, errs.ErrResourceType)
}

// tolerantEntry stores a document whose first instance has a broken schema
// pointer, so a tolerant decode keeps only buff_Sad.
func tolerantEntry(t *testing.T) Entry {
	t.Helper()

	doc := tuningDocument(t)
	happy, _ := doc.Instance("buff_Happy")
	require.NoError(t, doc.AddInstance("buff_Sad", cell.NewObject(happy.Schema(), map[string]cell.Cell{
		"name":     cell.NewString("Sad"),
		"duration": cell.NewNumber(format.TypeFloat, 120),
		"tooltip":  cell.NewLocalizationKey(0x0BADF00D),
	})))
	raw, err := simdata.Encode(doc)
	require.NoError(t, err)

	header, err := section.ReadHeader(cursor.NewReader(raw), true)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(raw[header.TablePos+8:], 1)

	return Entry{Key: tuningKey, Compression: format.CompressionNone, Data: raw}
}

func TestSimData_UnparsedInstances(t *testing.T) {
	entry := tolerantEntry(t)

	res, err := LoadSimData(entry, WithDecoderOptions(simdata.WithTolerant()))
	require.NoError(t, err)
	require.Len(t, res.Document().Unparsed(), 1)
	require.Len(t, res.Document().Instances(), 1)

	// unchanged, the stored bytes still carry the skipped instance
	out, err := res.Entry()
	require.NoError(t, err)
	require.Equal(t, entry, out)

	sad, ok := res.Document().Instance("buff_Sad")
	require.True(t, ok)
	sad.Set("duration", cell.NewNumber(format.TypeFloat, 60))

	_, err = res.Bytes()
	require.ErrorIs(t, err, errs.ErrUnparsedInstance)
	_, err = res.Entry()
	require.ErrorIs(t, err, errs.ErrUnparsedInstance)
	require.True(t, res.Changed())

	res, err = LoadSimData(entry,
		WithDecoderOptions(simdata.WithTolerant()),
		WithEncoderOptions(simdata.WithDropUnparsed()))
	require.NoError(t, err)
	sad, _ = res.Document().Instance("buff_Sad")
	sad.Set("duration", cell.NewNumber(format.TypeFloat, 60))

	out, err = res.Entry()
	require.NoError(t, err)
	reloaded, err := LoadSimData(out)
	require.NoError(t, err)
	require.Len(t, reloaded.Document().Instances(), 1)
	require.Empty(t, reloaded.Document().Unparsed())
}
