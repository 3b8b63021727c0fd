// Package resource connects archive entries to the SimData and string table
// codecs.
//
// An archive layer hands over an Entry: a resource key, the compression the
// payload is stored with and the stored bytes. LoadSimData and
// LoadStringTable decompress and decode it; SimData keeps the decoded
// document together with the buffer it came from so an unchanged resource is
// written back byte for byte.
package resource

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/modkit/compress"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/hash"
	"github.com/arloliu/modkit/internal/options"
	"github.com/arloliu/modkit/simdata"
	"github.com/arloliu/modkit/stbl"
)

// Resource type identifiers.
const (
	TypeSimData     uint32 = 0x545AC67A
	TypeStringTable uint32 = 0x220557DA
)

// Entry is one resource as stored in an archive.
type Entry struct {
	Key         format.ResourceKey
	Compression format.CompressionType
	Data        []byte
}

type config struct {
	decoderOpts []simdata.DecoderOption
	encoderOpts []simdata.EncoderOption
	anyType     bool
	logger      *zap.Logger
}

// Option configures LoadSimData and LoadStringTable.
type Option = options.Option[*config]

// WithDecoderOptions passes options through to simdata.Decode.
func WithDecoderOptions(opts ...simdata.DecoderOption) Option {
	return options.NoError(func(c *config) {
		c.decoderOpts = append(c.decoderOpts, opts...)
	})
}

// WithEncoderOptions passes options through to simdata.Encode when a changed
// document is written back.
func WithEncoderOptions(opts ...simdata.EncoderOption) Option {
	return options.NoError(func(c *config) {
		c.encoderOpts = append(c.encoderOpts, opts...)
	})
}

// WithAnyType accepts entries whose key type does not match the loader.
func WithAnyType() Option {
	return options.NoError(func(c *config) {
		c.anyType = true
	})
}

// WithLogger sets the logger for decompression and re-encoding events.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{logger: zap.NewNop()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *config) checkType(key format.ResourceKey, want uint32) error {
	if c.anyType || key.Type == want {
		return nil
	}

	return fmt.Errorf("%w: %s, want type %08X", errs.ErrResourceType, key, want)
}

func unpack(entry Entry, logger *zap.Logger) ([]byte, error) {
	codec, err := compress.GetCodec(entry.Compression)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", entry.Key, err)
	}
	data, err := codec.Decompress(entry.Data)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", entry.Key, err)
	}
	logger.Debug("resource unpacked",
		zap.Stringer("key", entry.Key),
		zap.Stringer("compression", entry.Compression),
		zap.Int("stored", len(entry.Data)),
		zap.Int("size", len(data)))

	return data, nil
}

func pack(compression format.CompressionType, data []byte) ([]byte, error) {
	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	return codec.Compress(data)
}

// SimData is a decoded SimData resource.
//
// The raw buffer is cached until the document changes; Bytes and Entry
// re-encode only then.
//
// Note: SimData is NOT thread-safe.
type SimData struct {
	key         format.ResourceKey
	compression format.CompressionType
	doc         *simdata.Document
	cfg         *config

	raw     []byte
	stored  []byte
	changed bool
}

// LoadSimData decompresses and decodes a SimData entry.
//
// Returns:
//   - *SimData: the resource, not changed
//   - error: ErrResourceType for a foreign key type (unless WithAnyType),
//     ErrUnsupportedCompression, decompression or decode errors
func LoadSimData(entry Entry, opts ...Option) (*SimData, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.checkType(entry.Key, TypeSimData); err != nil {
		return nil, err
	}

	raw, err := unpack(entry, cfg.logger)
	if err != nil {
		return nil, err
	}
	doc, err := simdata.Decode(raw, cfg.decoderOpts...)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", entry.Key, err)
	}

	s := &SimData{
		key:         entry.Key,
		compression: entry.Compression,
		doc:         doc,
		cfg:         cfg,
		raw:         raw,
		stored:      entry.Data,
	}
	doc.OnChange(s.invalidate)

	return s, nil
}

// NewSimData wraps a document built in memory. It counts as changed until
// its first Bytes or Entry call.
func NewSimData(key format.ResourceKey, compression format.CompressionType, doc *simdata.Document, opts ...Option) (*SimData, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	s := &SimData{
		key:         key,
		compression: compression,
		doc:         doc,
		cfg:         cfg,
		changed:     true,
	}
	doc.OnChange(s.invalidate)

	return s, nil
}

func (s *SimData) invalidate() {
	s.changed = true
	s.raw = nil
	s.stored = nil
}

// Key returns the archive key of the entry.
func (s *SimData) Key() format.ResourceKey { return s.key }

// Document returns the decoded document. Edits to it mark the entry changed.
func (s *SimData) Document() *simdata.Document { return s.doc }

// Changed reports whether the document was modified since it was loaded or
// last written.
func (s *SimData) Changed() bool { return s.changed }

// Bytes returns the uncompressed buffer, re-encoding the document if it
// changed. A changed document that holds unparsed instances fails with
// ErrUnparsedInstance unless simdata.WithDropUnparsed was passed through
// WithEncoderOptions; an unchanged one keeps its stored bytes.
func (s *SimData) Bytes() ([]byte, error) {
	if s.raw != nil && !s.doc.Dirty() {
		return s.raw, nil
	}

	raw, err := simdata.Encode(s.doc, s.cfg.encoderOpts...)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", s.key, err)
	}
	s.cfg.logger.Debug("resource re-encoded",
		zap.Stringer("key", s.key),
		zap.Int("size", len(raw)))

	s.raw = raw
	s.stored = nil
	s.changed = false

	return raw, nil
}

// Fingerprint returns the xxHash64 of the uncompressed buffer.
func (s *SimData) Fingerprint() (uint64, error) {
	raw, err := s.Bytes()
	if err != nil {
		return 0, err
	}

	return hash.Fingerprint(raw), nil
}

// Entry returns the resource as an archive entry, compressed the way it was
// loaded.
func (s *SimData) Entry() (Entry, error) {
	raw, err := s.Bytes()
	if err != nil {
		return Entry{}, err
	}
	if s.stored == nil {
		if s.stored, err = pack(s.compression, raw); err != nil {
			return Entry{}, fmt.Errorf("resource %s: %w", s.key, err)
		}
	}

	return Entry{Key: s.key, Compression: s.compression, Data: s.stored}, nil
}

// LoadStringTable decompresses and decodes a string table entry.
func LoadStringTable(entry Entry, opts ...Option) (*stbl.StringTable, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.checkType(entry.Key, TypeStringTable); err != nil {
		return nil, err
	}

	raw, err := unpack(entry, cfg.logger)
	if err != nil {
		return nil, err
	}
	tbl, err := stbl.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", entry.Key, err)
	}

	return tbl, nil
}

// StringTableEntry encodes tbl as an archive entry.
func StringTableEntry(key format.ResourceKey, compression format.CompressionType, tbl *stbl.StringTable) (Entry, error) {
	raw, err := tbl.Encode()
	if err != nil {
		return Entry{}, fmt.Errorf("resource %s: %w", key, err)
	}
	data, err := pack(compression, raw)
	if err != nil {
		return Entry{}, fmt.Errorf("resource %s: %w", key, err)
	}

	return Entry{Key: key, Compression: compression, Data: data}, nil
}
