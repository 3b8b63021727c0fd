package simdata

import (
	"fmt"
	"slices"

	"github.com/samber/mo"

	"github.com/arloliu/modkit/cell"
	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/pool"
	"github.com/arloliu/modkit/section"
)

// Encode serializes doc into a SimData buffer.
//
// Encoding runs in three phases. Collect walks every instance, deduplicates
// names, schemas and strings, and routes each cell into a table. Layout fixes
// the position of every section, table, schema and string. Emit writes the
// bytes, computing each pointer from the positions fixed by layout, so no
// written byte is ever revisited.
//
// The output depends only on the logical content of doc: encoding the same
// document twice yields identical buffers. A successful encode clears the
// document's dirty flag.
//
// Returns:
//   - []byte: the encoded buffer, owned by the caller
//   - error: ErrVersionNotWritable for a version other than 0x100 or 0x101,
//     ErrSchemaConflict, ErrUnparsedInstance for a tolerant decode's skipped
//     instances (unless WithDropUnparsed), validation errors for rows that
//     do not match their schema, or any error from WithValidation
func Encode(doc *Document, opts ...EncoderOption) ([]byte, error) {
	cfg, err := newEncoderConfig(opts)
	if err != nil {
		return nil, err
	}

	if !section.SupportedVersion(doc.version) {
		return nil, fmt.Errorf("%w: 0x%X", errs.ErrVersionNotWritable, doc.version)
	}
	if cfg.validate {
		if err := doc.Validate(); err != nil {
			return nil, err
		}
	}

	p := newPlan(doc, cfg)
	if err := p.collect(); err != nil {
		return nil, err
	}
	p.layout()

	buf := pool.GetDocumentBuffer()
	defer pool.PutDocumentBuffer(buf)

	w := cursor.NewWriter(buf)
	if err := p.emit(w); err != nil {
		return nil, err
	}

	out := slices.Clone(w.Bytes())
	doc.Clear()

	return out, nil
}

func (p *plan) emit(w *cursor.Writer) error {
	if err := p.emitHeader(w); err != nil {
		return err
	}
	if err := p.emitTableDirectory(w); err != nil {
		return err
	}
	if err := p.emitSchemas(w); err != nil {
		return err
	}
	for _, t := range p.tables {
		if t == p.charTable {
			continue
		}
		if err := p.emitTable(w, t); err != nil {
			return err
		}
	}

	w.Seek(p.poolPos)
	for _, s := range p.pool.strings {
		w.WriteCString(s)
	}
	if pad := p.end - w.Len(); pad > 0 {
		w.Seek(w.Len())
		w.Skip(pad)
	}

	return nil
}

func (p *plan) emitHeader(w *cursor.Writer) error {
	h := section.NewHeader(p.doc.version)
	h.TablePos = p.tablePos
	h.TableCount = int32(len(p.tables)) //nolint: gosec
	h.SchemaPos = p.schemaDir
	h.SchemaCount = int32(len(p.schemas)) //nolint: gosec
	if p.doc.version >= section.Version101 {
		h.Unused = mo.Some(p.doc.unused.OrElse(0))
	}

	w.Seek(0)

	return h.WriteTo(w)
}

func (p *plan) emitTableDirectory(w *cursor.Writer) error {
	w.Seek(p.tablePos)
	for _, t := range p.tables {
		info := section.TableInfo{
			NamePos:   mo.None[int](),
			SchemaPos: mo.None[int](),
			DataType:  t.dataType,
			RowSize:   uint32(t.rowSize),   //nolint: gosec
			RowPos:    t.pos,
			RowCount:  uint32(len(t.elems)), //nolint: gosec
		}
		if name, ok := t.name.Get(); ok {
			info.NamePos = mo.Some(p.stringPos(name))
			info.NameHash, _ = p.names.Hash(name)
		}
		if t.schema != nil {
			info.SchemaPos = mo.Some(p.schemaPos[t.schema])
		}
		if t == p.charTable {
			info.RowCount = uint32(p.charCount()) //nolint: gosec
		}

		if err := info.WriteTo(w); err != nil {
			return err
		}
	}

	return nil
}

func (p *plan) emitSchemas(w *cursor.Writer) error {
	for _, s := range p.schemas {
		rowSize, err := s.RowSize()
		if err != nil {
			return err
		}

		w.Seek(p.schemaPos[s])
		entry := section.SchemaEntry{
			NamePos:     mo.Some(p.stringPos(s.Name())),
			NameHash:    s.NameHash(),
			SchemaHash:  s.Hash(),
			SchemaSize:  rowSize,
			ColumnPos:   p.columnPos[s],
			ColumnCount: uint32(s.Len()), //nolint: gosec
		}
		if err := entry.WriteTo(w); err != nil {
			return err
		}

		cols, err := s.SerializedColumns()
		if err != nil {
			return err
		}
		w.Seek(p.columnPos[s])
		for _, col := range cols {
			rec := section.ColumnRecord{
				NamePos:   mo.Some(p.stringPos(col.Name())),
				NameHash:  col.NameHash(),
				DataType:  col.DataType(),
				Flags:     uint16(col.Flags()), //nolint: gosec
				Offset:    col.Offset(),
				SchemaPos: mo.None[int](),
			}
			if err := rec.WriteTo(w); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *plan) emitTable(w *cursor.Writer, t *table) error {
	for i, c := range t.elems {
		pos := t.elemPos(i)
		if t.dataType == format.TypeObject {
			obj, ok := c.(*cell.ObjectCell)
			if !ok {
				return fmt.Errorf("%w: %s element in an object table", errs.ErrUnplacedCell, c.DataType())
			}
			if err := p.emitRow(w, obj, t, pos); err != nil {
				return err
			}

			continue
		}

		w.Seek(pos)
		if err := p.emitSlot(w, c); err != nil {
			return err
		}
	}

	// trailing padding of the last row belongs to the table
	if end := t.pos + t.size(); w.Len() < end {
		w.Seek(w.Len())
		w.Skip(end - w.Len())
	}

	return nil
}

func (p *plan) emitRow(w *cursor.Writer, obj *cell.ObjectCell, t *table, rowPos int) error {
	cols, err := t.schema.SerializedColumns()
	if err != nil {
		return err
	}
	for _, col := range cols {
		child, _ := obj.Get(col.Name())
		w.Seek(rowPos + int(col.Offset()))
		if err := p.emitSlot(w, child); err != nil {
			return fmt.Errorf("%s.%s: %w", t.schema.Name(), col.Name(), err)
		}
	}

	return nil
}

func (p *plan) emitSlot(w *cursor.Writer, c cell.Cell) error {
	opts := cell.EncodeOptions{Target: p.target(c)}
	if c.DataType().IsPointer() && opts.Target.IsAbsent() && !isEmptyContainer(c) {
		return fmt.Errorf("%w: %s cell", errs.ErrUnplacedCell, c.DataType())
	}

	return c.Encode(w, opts)
}

func isEmptyContainer(c cell.Cell) bool {
	switch v := c.(type) {
	case *cell.VectorCell:
		return v.Len() == 0
	case *cell.VariantCell:
		return v.Child() == nil
	default:
		return false
	}
}
