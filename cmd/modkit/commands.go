package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/arloliu/modkit/cell"
	"github.com/arloliu/modkit/compress"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/hash"
	"github.com/arloliu/modkit/simdata"
	"github.com/arloliu/modkit/stbl"
)

var errRoundTrip = errors.New("round trip mismatch")

var compressionNames = map[string]format.CompressionType{
	"none": format.CompressionNone,
	"zlib": format.CompressionZlib,
	"zstd": format.CompressionZstd,
	"s2":   format.CompressionS2,
	"lz4":  format.CompressionLZ4,
}

func run(a *args, logger *zap.Logger, out io.Writer) error {
	switch {
	case a.Inspect != nil:
		doc, err := a.loadDocument(a.Inspect.File, logger)
		if err != nil {
			return err
		}

		return inspect(doc, out)

	case a.Roundtrip != nil:
		return a.roundtrip(logger, out)

	case a.Hash != nil:
		for _, name := range a.Hash.Names {
			fmt.Fprintf(out, "0x%08X  %s\n", hash.FNV32(name), name)
		}

		return nil

	case a.Text != nil:
		doc, err := a.loadDocument(a.Text.File, logger)
		if err != nil {
			return err
		}

		return printText(doc, a.Text.Instance, out)

	case a.Stbl != nil:
		data, err := a.readPayload(a.Stbl.File)
		if err != nil {
			return err
		}
		tbl, err := stbl.Decode(data)
		if err != nil {
			return fmt.Errorf("%s: %w", a.Stbl.File, err)
		}
		for _, e := range tbl.Entries() {
			fmt.Fprintf(out, "0x%08X  %q\n", e.Key, e.Value)
		}

		return nil

	default:
		return errors.New("missing subcommand")
	}
}

func (a *args) codec() (format.CompressionType, compress.Codec, error) {
	compression, ok := compressionNames[strings.ToLower(a.Compression)]
	if !ok {
		return 0, nil, fmt.Errorf("%w: %q", errs.ErrUnsupportedCompression, a.Compression)
	}
	codec, err := compress.GetCodec(compression)
	if err != nil {
		return 0, nil, err
	}

	return compression, codec, nil
}

// readPayload reads a resource file and removes its compression.
func (a *args) readPayload(path string) ([]byte, error) {
	_, codec, err := a.codec()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	plain, err := codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return plain, nil
}

func (a *args) decoderOptions(logger *zap.Logger) []simdata.DecoderOption {
	opts := []simdata.DecoderOption{simdata.WithDecoderLogger(logger)}
	if a.Recover {
		opts = append(opts, simdata.WithRecovery())
	}
	if a.Tolerant {
		opts = append(opts, simdata.WithTolerant())
	}

	return opts
}

func (a *args) loadDocument(path string, logger *zap.Logger) (*simdata.Document, error) {
	data, err := a.readPayload(path)
	if err != nil {
		return nil, err
	}
	doc, err := simdata.Decode(data, a.decoderOptions(logger)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, u := range doc.Unparsed() {
		logger.Warn("instance skipped", zap.String("instance", u.Name), zap.Error(u.Err))
	}

	return doc, nil
}

func inspect(doc *simdata.Document, out io.Writer) error {
	sum := doc.Summarize()
	fmt.Fprintf(out, "version 0x%X", sum.Version)
	if unused, ok := doc.Unused().Get(); ok {
		fmt.Fprintf(out, "  unused 0x%X", unused)
	}
	fmt.Fprintf(out, "\nschemas %d  instances %d  unparsed %d\n", sum.Schemas, sum.Instances, sum.Unparsed)

	for _, s := range doc.Schemas() {
		rowSize, err := s.RowSize()
		if err != nil {
			return err
		}
		cols, err := s.SerializedColumns()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nschema %s  hash 0x%08X  row %d bytes\n", s.Name(), s.Hash(), rowSize)
		for _, col := range cols {
			fmt.Fprintf(out, "  %4d  %-18s %s\n", col.Offset(), col.DataType(), col.Name())
		}
	}

	fmt.Fprintln(out)
	for _, inst := range doc.Instances() {
		fmt.Fprintf(out, "instance %s  schema %s\n", inst.Name, inst.Object.Schema().Name())
	}
	for _, u := range doc.Unparsed() {
		fmt.Fprintf(out, "unparsed %s  %v\n", u.Name, u.Err)
	}

	types := lo.Keys(sum.Types)
	slices.Sort(types)
	fmt.Fprintln(out)
	for _, t := range types {
		fmt.Fprintf(out, "%-18s %d\n", t, sum.Types[t])
	}

	return nil
}

func (a *args) roundtrip(logger *zap.Logger, out io.Writer) error {
	path := a.Roundtrip.File
	data, err := a.readPayload(path)
	if err != nil {
		return err
	}
	doc, err := simdata.Decode(data, a.decoderOptions(logger)...)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	encOpts := []simdata.EncoderOption{simdata.WithEncoderLogger(logger)}
	if a.Roundtrip.DropUnparsed {
		encOpts = append(encOpts, simdata.WithDropUnparsed())
	}
	encoded, err := simdata.Encode(doc, encOpts...)
	if err != nil {
		return fmt.Errorf("%s: encode: %w", path, err)
	}
	again, err := simdata.Decode(encoded)
	if err != nil {
		return fmt.Errorf("%s: decode re-encoded buffer: %w", path, err)
	}

	if !doc.Equals(again) {
		return fmt.Errorf("%w: %s: content differs after re-encoding", errRoundTrip, path)
	}
	if err := a.reportCompression(encoded, out); err != nil {
		return err
	}
	if bytes.Equal(data, encoded) {
		fmt.Fprintf(out, "%s: identical (%d bytes)\n", path, len(data))
		return nil
	}

	offset := firstDifference(data, encoded)
	fmt.Fprintf(out, "%s: content equal, bytes differ at offset %d (%d -> %d bytes)\n", path, offset, len(data), len(encoded))
	if a.Roundtrip.Strict {
		return fmt.Errorf("%w: %s: bytes differ at offset %d", errRoundTrip, path, offset)
	}

	return nil
}

// reportCompression prints what the re-encoded payload costs under the
// selected compression.
func (a *args) reportCompression(encoded []byte, out io.Writer) error {
	compression, codec, err := a.codec()
	if err != nil || compression == format.CompressionNone {
		return err
	}
	stats, err := compress.Measure(codec, compression, encoded)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d -> %d bytes (%.1f%% saved)\n",
		stats.Algorithm, stats.OriginalSize, stats.CompressedSize, stats.SpaceSavings())

	return nil
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}

	return n
}

func printText(doc *simdata.Document, only string, out io.Writer) error {
	tree := etree.NewDocument()
	root := tree.CreateElement("SimData")
	root.CreateAttr("version", fmt.Sprintf("0x%X", doc.Version()))

	found := false
	for _, inst := range doc.Instances() {
		if only != "" && inst.Name != only {
			continue
		}
		found = true
		root.AddChild(inst.Object.ToTextNode(cell.WithName(inst.Name)))
	}
	if only != "" && !found {
		return fmt.Errorf("no instance %q", only)
	}

	tree.Indent(2)
	_, err := tree.WriteTo(out)

	return err
}
