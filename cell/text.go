package cell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/hash"
)

// Text form element tags.
const (
	TagValue   = "T" // TagValue holds scalars and text.
	TagObject  = "U" // TagObject holds one element per row entry.
	TagVector  = "L" // TagVector holds one element per child.
	TagVariant = "V" // TagVariant holds at most one child element.
)

// Text form attributes.
const (
	AttrName    = "name"
	AttrType    = "type"
	AttrSchema  = "schema"
	AttrVariant = "variant"
	AttrHash    = "hash"
)

func newTextElement(tag string, t format.DataType, cfg *textConfig) *etree.Element {
	el := etree.NewElement(tag)
	if cfg.hasName {
		el.CreateAttr(AttrName, cfg.name)
	}
	if cfg.withType {
		el.CreateAttr(AttrType, t.String())
	}

	return el
}

func valueElement(c Cell, text string, opts []TextOption) *etree.Element {
	el := newTextElement(TagValue, c.DataType(), newTextConfig(opts))
	el.SetText(text)

	return el
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func formatHex32(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}

// ToTextNode renders the value as "true" or "false".
func (c *BooleanCell) ToTextNode(opts ...TextOption) *etree.Element {
	return valueElement(c, strconv.FormatBool(c.value), opts)
}

// ToTextNode renders the text verbatim.
func (c *TextCell) ToTextNode(opts ...TextOption) *etree.Element {
	return valueElement(c, c.value, opts)
}

// ToTextNode renders integers in decimal, a LocalizationKey in hex and Float
// with the shortest representation that round-trips at single precision.
func (c *NumberCell) ToTextNode(opts ...TextOption) *etree.Element {
	var text string
	switch c.dataType {
	case format.TypeFloat:
		text = formatFloat(c.Float())
	case format.TypeLocalizationKey:
		text = formatHex32(uint32(c.value))
	default:
		text = strconv.FormatInt(c.Int(), 10)
	}

	return valueElement(c, text, opts)
}

// ToTextNode renders the value in decimal, signed for Int64.
func (c *BigIntCell) ToTextNode(opts ...TextOption) *etree.Element {
	if c.dataType == format.TypeInt64 {
		return valueElement(c, strconv.FormatInt(c.Int64(), 10), opts)
	}

	return valueElement(c, strconv.FormatUint(c.bits, 10), opts)
}

// ToTextNode renders the string as text. The hash attribute is only written
// when the hash is not the FNV hash of the string.
func (c *HashedStringCell) ToTextNode(opts ...TextOption) *etree.Element {
	el := valueElement(c, c.value, opts)
	if c.hash != hash.FNV32(c.value) {
		el.CreateAttr(AttrHash, formatHex32(c.hash))
	}

	return el
}

// ToTextNode renders the components comma separated.
func (c *FloatVectorCell) ToTextNode(opts ...TextOption) *etree.Element {
	parts := make([]string, len(c.values))
	for i, v := range c.values {
		parts[i] = formatFloat(v)
	}

	return valueElement(c, strings.Join(parts, ","), opts)
}

// ToTextNode renders the key as hex type:group:instance.
func (c *ResourceKeyCell) ToTextNode(opts ...TextOption) *etree.Element {
	return valueElement(c, c.value.String(), opts)
}

// ToTextNode renders one element per row entry, in the logical column order
// of the schema. Row entries omit their type; the schema carries it.
func (o *ObjectCell) ToTextNode(opts ...TextOption) *etree.Element {
	el := newTextElement(TagObject, format.TypeObject, newTextConfig(opts))

	var names []string
	if o.schema != nil {
		el.CreateAttr(AttrSchema, o.schema.Name())
		for _, col := range o.schema.Columns() {
			if _, ok := o.row[col.Name()]; ok {
				names = append(names, col.Name())
			}
		}
	} else {
		names = o.Names()
	}

	for _, name := range names {
		child := o.row[name]
		withType := true
		if o.schema != nil {
			col, _ := o.schema.Column(name)
			withType = col.DataType() != child.DataType()
		}
		el.AddChild(child.ToTextNode(WithName(name), WithType(withType)))
	}

	return el
}

// ToTextNode renders one child element per vector element.
func (v *VectorCell) ToTextNode(opts ...TextOption) *etree.Element {
	el := newTextElement(TagVector, format.TypeVector, newTextConfig(opts))
	for _, c := range v.children {
		el.AddChild(c.ToTextNode())
	}

	return el
}

// ToTextNode renders the type hash as an attribute and the payload, if
// any, as the only child.
func (v *VariantCell) ToTextNode(opts ...TextOption) *etree.Element {
	el := newTextElement(TagVariant, format.TypeVariant, newTextConfig(opts))
	el.CreateAttr(AttrVariant, formatHex32(v.typeHash))
	if v.child != nil {
		el.AddChild(v.child.ToTextNode())
	}

	return el
}

func invalidNode(el *etree.Element, msg string, args ...any) error {
	return fmt.Errorf("%w: <%s>: %s", errs.ErrInvalidTextNode, el.Tag, fmt.Sprintf(msg, args...))
}

// ParseTextNode rebuilds a cell from its text form.
//
// The data type comes from the type attribute, then WithTypeHint, then the
// tag for objects, vectors and variants. Objects resolve their schema
// attribute through WithSchemaResolver.
//
// Returns:
//   - Cell: the parsed cell
//   - error: ErrInvalidTextNode wrapping the first problem found
func ParseTextNode(el *etree.Element, opts ...ParseOption) (Cell, error) {
	cfg := newParseConfig(opts)

	t, err := textNodeType(el, cfg)
	if err != nil {
		return nil, err
	}

	switch t {
	case format.TypeObject:
		return parseObjectNode(el, cfg)
	case format.TypeVector:
		return parseVectorNode(el, cfg)
	case format.TypeVariant:
		return parseVariantNode(el, cfg)
	default:
		if el.Tag != TagValue {
			return nil, invalidNode(el, "%s value in a non-value element", t)
		}

		return parseValue(el, t)
	}
}

func textNodeType(el *etree.Element, cfg *parseConfig) (format.DataType, error) {
	if attr := el.SelectAttr(AttrType); attr != nil {
		t, err := format.ParseDataType(attr.Value)
		if err != nil {
			return format.TypeUndefined, invalidNode(el, "%v", err)
		}

		return t, nil
	}
	if cfg.hasHint {
		return cfg.typeHint, nil
	}

	switch el.Tag {
	case TagObject:
		return format.TypeObject, nil
	case TagVector:
		return format.TypeVector, nil
	case TagVariant:
		return format.TypeVariant, nil
	default:
		return format.TypeUndefined, invalidNode(el, "no type attribute and no type hint")
	}
}

func childParseOptions(cfg *parseConfig) []ParseOption {
	if cfg.resolver == nil {
		return nil
	}

	return []ParseOption{WithSchemaResolver(cfg.resolver)}
}

func parseObjectNode(el *etree.Element, cfg *parseConfig) (Cell, error) {
	name := el.SelectAttrValue(AttrSchema, "")
	if name == "" {
		return nil, invalidNode(el, "object without schema attribute")
	}
	if cfg.resolver == nil {
		return nil, invalidNode(el, "no schema resolver for schema %q", name)
	}
	s, ok := cfg.resolver(name)
	if !ok {
		return nil, invalidNode(el, "unknown schema %q", name)
	}

	row := make(map[string]Cell, s.Len())
	for _, child := range el.ChildElements() {
		colName := child.SelectAttrValue(AttrName, "")
		if colName == "" {
			return nil, invalidNode(child, "row entry of schema %q without name", name)
		}
		if _, dup := row[colName]; dup {
			return nil, invalidNode(child, "duplicate row entry %q", colName)
		}

		childOpts := childParseOptions(cfg)
		if col, ok := s.Column(colName); ok {
			childOpts = append(childOpts, WithTypeHint(col.DataType()))
		}
		c, err := ParseTextNode(child, childOpts...)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", colName, err)
		}
		row[colName] = c
	}

	return NewObject(s, row), nil
}

func parseVectorNode(el *etree.Element, cfg *parseConfig) (Cell, error) {
	children := el.ChildElements()
	cells := make([]Cell, 0, len(children))
	for i, child := range children {
		c, err := ParseTextNode(child, childParseOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		cells = append(cells, c)
	}

	v, err := NewVector(cells...)
	if err != nil {
		return nil, err
	}

	return v, nil
}

func parseVariantNode(el *etree.Element, cfg *parseConfig) (Cell, error) {
	typeHash, err := strconv.ParseUint(el.SelectAttrValue(AttrVariant, "0"), 0, 32)
	if err != nil {
		return nil, invalidNode(el, "variant attribute: %v", err)
	}

	children := el.ChildElements()
	switch len(children) {
	case 0:
		return NewVariant(uint32(typeHash), nil), nil
	case 1:
		child, err := ParseTextNode(children[0], childParseOptions(cfg)...)
		if err != nil {
			return nil, err
		}

		return NewVariant(uint32(typeHash), child), nil
	default:
		return nil, invalidNode(el, "variant with %d children", len(children))
	}
}

func parseValue(el *etree.Element, t format.DataType) (Cell, error) {
	text := el.Text()

	switch t {
	case format.TypeBoolean:
		v, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, invalidNode(el, "%v", err)
		}

		return NewBoolean(v), nil

	case format.TypeString:
		return NewString(text), nil

	case format.TypeCharacter:
		if len(text) != 1 {
			return nil, invalidNode(el, "character %q is not one byte", text)
		}

		return NewCharacter(text[0]), nil

	case format.TypeFloat:
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 32)
		if err != nil {
			return nil, invalidNode(el, "%v", err)
		}

		return NewNumber(t, v), nil

	case format.TypeInt8, format.TypeInt16, format.TypeInt32:
		v, err := strconv.ParseInt(strings.TrimSpace(text), 0, 64)
		if err != nil {
			return nil, invalidNode(el, "%v", err)
		}

		return NewNumber(t, float64(v)), nil

	case format.TypeUInt8, format.TypeUInt16, format.TypeUInt32, format.TypeLocalizationKey:
		v, err := strconv.ParseUint(strings.TrimSpace(text), 0, 64)
		if err != nil {
			return nil, invalidNode(el, "%v", err)
		}

		return NewNumber(t, float64(v)), nil

	case format.TypeInt64:
		v, err := strconv.ParseInt(strings.TrimSpace(text), 0, 64)
		if err != nil {
			return nil, invalidNode(el, "%v", err)
		}

		return NewInt64(v), nil

	case format.TypeUInt64, format.TypeTableSetReference:
		v, err := strconv.ParseUint(strings.TrimSpace(text), 0, 64)
		if err != nil {
			return nil, invalidNode(el, "%v", err)
		}
		if t == format.TypeUInt64 {
			return NewUInt64(v), nil
		}

		return NewTableSetReference(v), nil

	case format.TypeHashedString:
		attr := el.SelectAttr(AttrHash)
		if attr == nil {
			return NewHashedString(text), nil
		}
		h, err := strconv.ParseUint(attr.Value, 0, 32)
		if err != nil {
			return nil, invalidNode(el, "hash attribute: %v", err)
		}

		return NewHashedStringWithHash(text, uint32(h)), nil

	case format.TypeFloat2, format.TypeFloat3, format.TypeFloat4:
		parts := strings.Split(text, ",")
		if len(parts) != FloatArity(t) {
			return nil, invalidNode(el, "%s needs %d components, has %d", t, FloatArity(t), len(parts))
		}
		values := make([]float32, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
			if err != nil {
				return nil, invalidNode(el, "component %d: %v", i, err)
			}
			values[i] = float32(v)
		}

		return NewFloatVector(t, values), nil

	case format.TypeResourceKey:
		k, err := format.ParseResourceKey(strings.TrimSpace(text))
		if err != nil {
			return nil, invalidNode(el, "%v", err)
		}

		return NewResourceKey(k), nil

	default:
		return nil, invalidNode(el, "unsupported type %s", t)
	}
}
