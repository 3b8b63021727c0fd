package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexflint/go-arg"
	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arloliu/modkit/cell"
	"github.com/arloliu/modkit/compress"
	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/schema"
	"github.com/arloliu/modkit/section"
	"github.com/arloliu/modkit/simdata"
	"github.com/arloliu/modkit/stbl"
)

func parse(t *testing.T, argv ...string) *args {
	t.Helper()

	var a args
	p, err := arg.NewParser(arg.Config{Program: "modkit"}, &a)
	require.NoError(t, err)
	require.NoError(t, p.Parse(argv))

	return &a
}

func execute(t *testing.T, argv ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := run(parse(t, argv...), zap.NewNop(), &out)

	return out.String(), err
}

func writeDocument(t *testing.T, compression format.CompressionType) string {
	t.Helper()

	s := schema.MustNew("Trait", 0x51A7E000,
		schema.NewColumn("display_name", format.TypeLocalizationKey, 0),
		schema.NewColumn("ages", format.TypeVector, 0),
		schema.NewColumn("weight", format.TypeFloat, 0),
	)
	doc := simdata.NewDocument(simdata.WithUnused(0x20))
	for _, name := range []string{"trait_Cheerful", "trait_Gloomy"} {
		ages, err := cell.NewVector(cell.NewNumber(format.TypeUInt32, 4), cell.NewNumber(format.TypeUInt32, 8))
		require.NoError(t, err)
		require.NoError(t, doc.AddInstance(name, cell.NewObject(s, map[string]cell.Cell{
			"display_name": cell.NewLocalizationKey(0xCAFEBABE),
			"ages":         ages,
			"weight":       cell.NewNumber(format.TypeFloat, 1.5),
		})))
	}

	raw, err := simdata.Encode(doc)
	require.NoError(t, err)
	codec, err := compress.GetCodec(compression)
	require.NoError(t, err)
	data, err := codec.Compress(raw)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "trait.simdata")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func TestParse_Subcommands(t *testing.T) {
	a := parse(t, "--tolerant", "-c", "zlib", "roundtrip", "--strict", "file.bin")
	require.True(t, a.Tolerant)
	require.Equal(t, "zlib", a.Compression)
	require.NotNil(t, a.Roundtrip)
	require.True(t, a.Roundtrip.Strict)
	require.Equal(t, "file.bin", a.Roundtrip.File)

	a = parse(t, "hash", "name", "Name")
	require.Equal(t, []string{"name", "Name"}, a.Hash.Names)
	require.Equal(t, "none", a.Compression)
}

func TestRun_Hash(t *testing.T) {
	out, err := execute(t, "hash", "", "Foo", "foo")
	require.NoError(t, err)
	require.Contains(t, out, "0x811C9DC5")

	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 3)
	// names hash case-insensitively
	require.Equal(t, lines[1][:10], lines[2][:10])
}

func TestRun_Inspect(t *testing.T) {
	path := writeDocument(t, format.CompressionNone)

	out, err := execute(t, "inspect", path)
	require.NoError(t, err)
	require.Contains(t, out, "version 0x101  unused 0x20")
	require.Contains(t, out, "schemas 1  instances 2  unparsed 0")
	require.Contains(t, out, "schema Trait  hash 0x51A7E000")
	require.Contains(t, out, "instance trait_Cheerful  schema Trait")
	require.Contains(t, out, "instance trait_Gloomy  schema Trait")
}

func TestRun_Compression(t *testing.T) {
	for _, name := range []string{"zlib", "zstd", "s2", "lz4"} {
		t.Run(name, func(t *testing.T) {
			path := writeDocument(t, compressionNames[name])

			out, err := execute(t, "-c", name, "inspect", path)
			require.NoError(t, err)
			require.Contains(t, out, "instances 2")

			out, err = execute(t, "-c", name, "roundtrip", path)
			require.NoError(t, err)
			require.Contains(t, out, compressionNames[name].String()+": ")
			require.Contains(t, out, "% saved")

			_, err = execute(t, "inspect", path)
			require.Error(t, err)
		})
	}

	_, err := execute(t, "-c", "brotli", "inspect", "missing")
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestRun_Roundtrip(t *testing.T) {
	path := writeDocument(t, format.CompressionNone)

	out, err := execute(t, "roundtrip", "--strict", path)
	require.NoError(t, err)
	require.Contains(t, out, "identical")
}

func TestRun_RoundtripByteDifference(t *testing.T) {
	path := writeDocument(t, format.CompressionNone)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// trailing bytes are ignored by the decoder but not reproduced
	require.NoError(t, os.WriteFile(path, append(data, 0, 0, 0, 0), 0o600))

	out, err := execute(t, "roundtrip", path)
	require.NoError(t, err)
	require.Contains(t, out, "content equal, bytes differ")

	_, err = execute(t, "roundtrip", "--strict", path)
	require.ErrorIs(t, err, errRoundTrip)
}

func TestRun_Text(t *testing.T) {
	path := writeDocument(t, format.CompressionNone)

	out, err := execute(t, "text", path)
	require.NoError(t, err)

	tree := etree.NewDocument()
	require.NoError(t, tree.ReadFromString(out))
	root := tree.Root()
	require.Equal(t, "SimData", root.Tag)
	require.Len(t, root.ChildElements(), 2)
	require.Equal(t, "trait_Cheerful", root.ChildElements()[0].SelectAttrValue(cell.AttrName, ""))

	out, err = execute(t, "text", "-i", "trait_Gloomy", path)
	require.NoError(t, err)
	require.Contains(t, out, "trait_Gloomy")
	require.NotContains(t, out, "trait_Cheerful")

	_, err = execute(t, "text", "--instance", "trait_Missing", path)
	require.Error(t, err)
}

func TestRun_Stbl(t *testing.T) {
	tbl := stbl.New()
	require.NoError(t, tbl.Add(0xCAFEBABE, "Cheerful"))
	buf, err := tbl.Encode()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "strings.stbl")
	require.NoError(t, os.WriteFile(path, buf, 0o600))

	out, err := execute(t, "stbl", path)
	require.NoError(t, err)
	require.Equal(t, "0xCAFEBABE  \"Cheerful\"\n", out)
}

func TestRun_Errors(t *testing.T) {
	_, err := execute(t, "inspect", filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.simdata")
	require.NoError(t, os.WriteFile(path, []byte("not a simdata buffer at all"), 0o600))
	_, err = execute(t, "inspect", path)
	require.ErrorIs(t, err, errs.ErrInvalidMagic)

	require.Error(t, run(&args{}, zap.NewNop(), &bytes.Buffer{}))
}

func TestRun_RoundtripUnparsed(t *testing.T) {
	path := writeDocument(t, format.CompressionNone)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// break the schema pointer of the first instance table
	header, err := section.ReadHeader(cursor.NewReader(data), true)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(data[header.TablePos+8:], 1)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err := execute(t, "--tolerant", "inspect", path)
	require.NoError(t, err)
	require.Contains(t, out, "instances 1  unparsed 1")

	_, err = execute(t, "--tolerant", "roundtrip", path)
	require.ErrorIs(t, err, errs.ErrUnparsedInstance)

	out, err = execute(t, "--tolerant", "roundtrip", "--drop-unparsed", path)
	require.NoError(t, err)
	require.Contains(t, out, "content equal, bytes differ")
}
