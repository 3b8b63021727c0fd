package simdata

import (
	"go.uber.org/zap"

	"github.com/arloliu/modkit/internal/options"
)

type decoderConfig struct {
	recovery   bool
	tolerant   bool
	tableIndex bool
	logger     *zap.Logger
}

// DecoderOption configures Decode.
type DecoderOption = options.Option[*decoderConfig]

// WithRecovery skips header validation. Header fields are read positionally
// and a wrong magic tag or an unknown version is accepted.
func WithRecovery() DecoderOption {
	return options.NoError(func(c *decoderConfig) {
		c.recovery = true
	})
}

// WithTolerant degrades layout errors instead of failing: an unresolved
// schema pointer is logged and treated as no schema, and an instance that
// cannot be decoded is recorded in Document.Unparsed.
func WithTolerant() DecoderOption {
	return options.NoError(func(c *decoderConfig) {
		c.tolerant = true
	})
}

// WithTableIndex selects how a pointer target is mapped to its table: a
// binary search over tables sorted by position (the default) or a linear
// scan over the table directory. Both give the same result.
func WithTableIndex(enabled bool) DecoderOption {
	return options.NoError(func(c *decoderConfig) {
		c.tableIndex = enabled
	})
}

// WithDecoderLogger sets the logger for skipped tables and unresolved
// schemas. The default discards everything.
func WithDecoderLogger(logger *zap.Logger) DecoderOption {
	return options.NoError(func(c *decoderConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

func newDecoderConfig(opts []DecoderOption) (*decoderConfig, error) {
	cfg := &decoderConfig{
		tableIndex: true,
		logger:     zap.NewNop(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

type encoderConfig struct {
	validate     bool
	strictHashes bool
	dropUnparsed bool
	logger       *zap.Logger
}

// EncoderOption configures Encode.
type EncoderOption = options.Option[*encoderConfig]

// WithValidation validates the whole document before encoding.
func WithValidation() EncoderOption {
	return options.NoError(func(c *encoderConfig) {
		c.validate = true
	})
}

// WithStrictHashes fails the encode when two different names share a hash
// instead of logging a warning.
func WithStrictHashes() EncoderOption {
	return options.NoError(func(c *encoderConfig) {
		c.strictHashes = true
	})
}

// WithDropUnparsed lets Encode write a document that still holds instances
// the tolerant decoder skipped. They are left out of the output and logged.
// Without it such a document fails with ErrUnparsedInstance.
func WithDropUnparsed() EncoderOption {
	return options.NoError(func(c *encoderConfig) {
		c.dropUnparsed = true
	})
}

// WithEncoderLogger sets the logger for name hash collisions and dropped
// unparsed instances. The default discards everything.
func WithEncoderLogger(logger *zap.Logger) EncoderOption {
	return options.NoError(func(c *encoderConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

func newEncoderConfig(opts []EncoderOption) (*encoderConfig, error) {
	cfg := &encoderConfig{logger: zap.NewNop()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}
