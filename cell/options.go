package cell

import (
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/options"
	"github.com/arloliu/modkit/schema"
)

type validateConfig struct {
	ignoreOwner bool
}

// ValidateOption configures Cell.Validate.
type ValidateOption = options.Option[*validateConfig]

// WithIgnoreOwner skips the check that every child is attached to its
// container. Graphs under active editing may hold children that were not
// reparented yet.
func WithIgnoreOwner() ValidateOption {
	return options.NoError(func(c *validateConfig) {
		c.ignoreOwner = true
	})
}

func newValidateConfig(opts []ValidateOption) *validateConfig {
	cfg := &validateConfig{}
	_ = options.Apply(cfg, opts...)

	return cfg
}

func (c *validateConfig) forward() []ValidateOption {
	if c.ignoreOwner {
		return []ValidateOption{WithIgnoreOwner()}
	}

	return nil
}

type cloneConfig struct {
	cloneSchema bool
	schemas     map[*schema.Schema]*schema.Schema
}

// CloneOption configures Cell.Clone.
type CloneOption = options.Option[*cloneConfig]

// WithCloneSchema duplicates referenced schemas instead of sharing them.
// Within one Clone call a schema shared by several objects is duplicated
// once, so the copies keep sharing it.
func WithCloneSchema() CloneOption {
	return options.NoError(func(c *cloneConfig) {
		c.cloneSchema = true
	})
}

// WithSchemaMapping duplicates schemas through m: a schema found in m is
// replaced by its mapped copy, any other schema is cloned and added to m.
// Use it to clone several cells against one set of copied schemas.
func WithSchemaMapping(m map[*schema.Schema]*schema.Schema) CloneOption {
	return options.NoError(func(c *cloneConfig) {
		c.cloneSchema = true
		c.schemas = m
	})
}

func withCloneConfig(cfg *cloneConfig) CloneOption {
	return options.NoError(func(c *cloneConfig) {
		*c = *cfg
	})
}

func newCloneConfig(opts []CloneOption) *cloneConfig {
	cfg := &cloneConfig{}
	_ = options.Apply(cfg, opts...)
	if cfg.cloneSchema && cfg.schemas == nil {
		cfg.schemas = make(map[*schema.Schema]*schema.Schema)
	}

	return cfg
}

func (c *cloneConfig) schema(s *schema.Schema) *schema.Schema {
	if !c.cloneSchema || s == nil {
		return s
	}
	if cloned, ok := c.schemas[s]; ok {
		return cloned
	}
	cloned := s.Clone()
	c.schemas[s] = cloned

	return cloned
}

type textConfig struct {
	name     string
	hasName  bool
	withType bool
}

// TextOption configures Cell.ToTextNode.
type TextOption = options.Option[*textConfig]

// WithName sets the name attribute of the rendered element.
func WithName(name string) TextOption {
	return options.NoError(func(c *textConfig) {
		c.name = name
		c.hasName = true
	})
}

// WithType controls whether the type attribute is rendered. It is on by
// default; object rows omit it for their columns since the schema already
// carries the type.
func WithType(enabled bool) TextOption {
	return options.NoError(func(c *textConfig) {
		c.withType = enabled
	})
}

func newTextConfig(opts []TextOption) *textConfig {
	cfg := &textConfig{withType: true}
	_ = options.Apply(cfg, opts...)

	return cfg
}

type parseConfig struct {
	typeHint format.DataType
	hasHint  bool
	resolver func(name string) (*schema.Schema, bool)
}

// ParseOption configures ParseTextNode.
type ParseOption = options.Option[*parseConfig]

// WithTypeHint supplies the data type of an element that carries no type
// attribute.
func WithTypeHint(t format.DataType) ParseOption {
	return options.NoError(func(c *parseConfig) {
		c.typeHint = t
		c.hasHint = true
	})
}

// WithSchemaResolver supplies the lookup used to bind the schema attribute
// of object elements.
func WithSchemaResolver(fn func(name string) (*schema.Schema, bool)) ParseOption {
	return options.NoError(func(c *parseConfig) {
		c.resolver = fn
	})
}

func newParseConfig(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{}
	_ = options.Apply(cfg, opts...)

	return cfg
}
