package simdata

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/arloliu/modkit/cell"
	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/schema"
	"github.com/arloliu/modkit/section"
)

// maxDepth bounds pointer nesting so a pointer cycle in a corrupt buffer
// fails instead of recursing forever.
const maxDepth = 256

// visitsPerByte bounds the number of slots one decode may visit, relative to
// the buffer length. A well-formed buffer visits every slot once.
const visitsPerByte = 2

// decoder holds the state of one Decode call.
//
// Note: decoder is NOT thread-safe and NOT reusable.
type decoder struct {
	r       *cursor.Reader
	cfg     *decoderConfig
	header  section.Header
	tables  []section.TableInfo
	byStart []int       // indices of non-empty tables sorted by RowPos
	zeroAt  map[int]int // RowPos of zero-width object tables to their index
	visits  int         // remaining slot visits
	schemas map[int]*schema.Schema
	ordered []*schema.Schema
}

// Decode parses a SimData buffer into a Document.
//
// Named tables become instances, in table directory order; every schema in
// the schema directory is kept, with its stored hashes and column offsets.
//
// Parameters:
//   - data: the complete, uncompressed buffer
//   - opts: decoder options
//
// Returns:
//   - *Document: the decoded document, not dirty
//   - error: ErrFormat errors for a bad header (unless WithRecovery),
//     ErrLayout errors for unresolvable pointers (unless WithTolerant)
func Decode(data []byte, opts ...DecoderOption) (*Document, error) {
	cfg, err := newDecoderConfig(opts)
	if err != nil {
		return nil, err
	}

	d := &decoder{
		r:       cursor.NewReader(data),
		cfg:     cfg,
		schemas: make(map[int]*schema.Schema),
		zeroAt:  make(map[int]int),
		visits:  visitsPerByte*len(data) + 1,
	}

	return d.decode()
}

func (d *decoder) decode() (*Document, error) {
	header, err := section.ReadHeader(d.r, !d.cfg.recovery)
	if err != nil {
		return nil, err
	}
	d.header = header

	if err := d.readTables(); err != nil {
		return nil, err
	}
	if err := d.readSchemas(); err != nil {
		return nil, err
	}
	d.buildIndex()

	doc := &Document{
		version: header.Version,
		unused:  header.Unused,
	}
	for _, s := range d.ordered {
		s.SetOwner(doc)
		doc.schemas = append(doc.schemas, s)
	}

	for i, tbl := range d.tables {
		namePos, named := tbl.NamePos.Get()
		if !named {
			continue
		}
		name, err := d.r.CStringAt(namePos)
		if err != nil {
			return nil, fmt.Errorf("table %d name: %w", i, err)
		}

		obj, err := d.decodeInstance(name, tbl)
		if err != nil {
			if d.cfg.tolerant && errors.Is(err, errs.ErrLayout) {
				d.cfg.logger.Warn("skipping instance",
					zap.String("instance", name),
					zap.Int("table", i),
					zap.Error(err))
				doc.unparsed = append(doc.unparsed, Unparsed{Name: name, Table: tbl, Err: err})

				continue
			}

			return nil, fmt.Errorf("instance %q: %w", name, err)
		}

		obj.SetOwner(doc)
		doc.instances = append(doc.instances, Instance{Name: name, Object: obj})
	}

	return doc, nil
}

func (d *decoder) readTables() error {
	if d.header.TableCount < 0 {
		return fmt.Errorf("%w: negative table count %d", errs.ErrOffsetOutOfRange, d.header.TableCount)
	}
	if d.header.TableCount == 0 {
		return nil
	}
	if err := d.r.Seek(d.header.TablePos); err != nil {
		return fmt.Errorf("table directory: %w", err)
	}

	if err := d.fits(int(d.header.TableCount), section.TableInfoSize); err != nil {
		return fmt.Errorf("table directory: %w", err)
	}

	d.tables = make([]section.TableInfo, 0, d.header.TableCount)
	for i := range int(d.header.TableCount) {
		tbl, err := section.ReadTableInfo(d.r)
		if err != nil {
			return fmt.Errorf("table %d: %w", i, err)
		}
		if err := d.checkExtent(tbl); err != nil {
			return fmt.Errorf("table %d: %w", i, err)
		}
		d.tables = append(d.tables, tbl)
	}

	return nil
}

// fits reports an error unless count records of size bytes fit between the
// read position and the end of the buffer.
func (d *decoder) fits(count int, size int) error {
	if remaining := d.r.Len() - d.r.Tell(); count > remaining/size {
		return fmt.Errorf("%w: %d records of %d bytes at %d, %d bytes left",
			errs.ErrUnexpectedEOF, count, size, d.r.Tell(), remaining)
	}

	return nil
}

// checkExtent rejects a table whose elements run outside the buffer.
// Zero-width object tables hold no bytes; their row count is bounded by the
// buffer length instead.
func (d *decoder) checkExtent(tbl section.TableInfo) error {
	size := d.r.Len()
	if tbl.RowPos < 0 || tbl.RowPos > size {
		return fmt.Errorf("%w: rows at %d outside a %d byte buffer", errs.ErrOffsetOutOfRange, tbl.RowPos, size)
	}
	if tbl.RowSize == 0 {
		if uint64(tbl.RowCount) > uint64(size) {
			return fmt.Errorf("%w: %d zero-width rows in a %d byte buffer", errs.ErrOffsetOutOfRange, tbl.RowCount, size)
		}

		return nil
	}
	if uint64(tbl.RowSize)*uint64(tbl.RowCount) > uint64(size-tbl.RowPos) {
		return fmt.Errorf("%w: %d rows of %d bytes at %d overrun the buffer",
			errs.ErrOffsetOutOfRange, tbl.RowCount, tbl.RowSize, tbl.RowPos)
	}

	return nil
}

func (d *decoder) readSchemas() error {
	if d.header.SchemaCount < 0 {
		return fmt.Errorf("%w: negative schema count %d", errs.ErrOffsetOutOfRange, d.header.SchemaCount)
	}
	if d.header.SchemaCount == 0 {
		return nil
	}
	if err := d.r.Seek(d.header.SchemaPos); err != nil {
		return fmt.Errorf("schema directory: %w", err)
	}
	if err := d.fits(int(d.header.SchemaCount), section.SchemaEntrySize); err != nil {
		return fmt.Errorf("schema directory: %w", err)
	}

	for i := range int(d.header.SchemaCount) {
		entryPos := d.r.Tell()
		entry, err := section.ReadSchemaEntry(d.r)
		if err != nil {
			return fmt.Errorf("schema %d: %w", i, err)
		}

		name, err := d.optionalString(entry.NamePos)
		if err != nil {
			return fmt.Errorf("schema %d name: %w", i, err)
		}

		d.r.Save()
		columns, err := d.readColumns(entry)
		d.r.Restore()
		if err != nil {
			return fmt.Errorf("schema %q: %w", name, err)
		}

		s := schema.Restore(name, entry.NameHash, entry.SchemaHash, entry.SchemaSize, columns)
		d.schemas[entryPos] = s
		d.ordered = append(d.ordered, s)
	}

	return nil
}

func (d *decoder) readColumns(entry section.SchemaEntry) ([]*schema.Column, error) {
	if err := d.r.Seek(entry.ColumnPos); err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	if uint64(entry.ColumnCount) > uint64(d.r.Len()) {
		return nil, fmt.Errorf("columns: %w: %d columns", errs.ErrUnexpectedEOF, entry.ColumnCount)
	}
	if err := d.fits(int(entry.ColumnCount), section.ColumnSize); err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	columns := make([]*schema.Column, 0, entry.ColumnCount)
	for i := range int(entry.ColumnCount) {
		rec, err := section.ReadColumnRecord(d.r)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		name, err := d.optionalString(rec.NamePos)
		if err != nil {
			return nil, fmt.Errorf("column %d name: %w", i, err)
		}
		if !rec.DataType.Valid() {
			return nil, fmt.Errorf("column %q: %w: %s", name, errs.ErrUnsupportedType, rec.DataType)
		}
		columns = append(columns, schema.RestoreColumn(name, rec.NameHash, rec.DataType, uint32(rec.Flags), rec.Offset))
	}

	return columns, nil
}

func (d *decoder) optionalString(pos mo.Option[int]) (string, error) {
	p, ok := pos.Get()
	if !ok {
		return "", nil
	}

	return d.r.CStringAt(p)
}

func (d *decoder) buildIndex() {
	for i, tbl := range d.tables {
		if tbl.RowSize == 0 && tbl.RowCount > 0 && tbl.DataType == format.TypeObject {
			if _, dup := d.zeroAt[tbl.RowPos]; !dup {
				d.zeroAt[tbl.RowPos] = i
			}
		}
	}

	if !d.cfg.tableIndex {
		return
	}

	d.byStart = lo.Filter(lo.Range(len(d.tables)), func(i int, _ int) bool {
		return d.tables[i].RowSize > 0 && d.tables[i].RowCount > 0
	})
	sort.SliceStable(d.byStart, func(a, b int) bool {
		return d.tables[d.byStart[a]].RowPos < d.tables[d.byStart[b]].RowPos
	})
}

// owningTable returns the index of the table whose element range contains pos.
// A zero-width object table owns exactly its start position.
func (d *decoder) owningTable(pos int) (int, error) {
	if idx, ok := d.zeroAt[pos]; ok {
		return idx, nil
	}
	if d.cfg.tableIndex {
		n := sort.Search(len(d.byStart), func(i int) bool {
			return d.tables[d.byStart[i]].RowPos > pos
		})
		if n > 0 && d.tables[d.byStart[n-1]].Contains(pos) {
			return d.byStart[n-1], nil
		}
	} else {
		for i, tbl := range d.tables {
			if tbl.Contains(pos) {
				return i, nil
			}
		}
	}

	return -1, fmt.Errorf("%w: position %d", errs.ErrNoOwningTable, pos)
}

// tableSchema resolves the schema of an object table.
func (d *decoder) tableSchema(tbl section.TableInfo) (*schema.Schema, error) {
	pos, ok := tbl.SchemaPos.Get()
	if !ok {
		return nil, fmt.Errorf("%w: object table at %d has no schema", errs.ErrUnresolvedSchema, tbl.RowPos)
	}
	s, ok := d.schemas[pos]
	if !ok {
		if d.cfg.tolerant {
			d.cfg.logger.Warn("unresolved schema pointer",
				zap.Int("schema_pos", pos),
				zap.Int("table_pos", tbl.RowPos))
		}

		return nil, fmt.Errorf("%w: no schema entry at %d", errs.ErrUnresolvedSchema, pos)
	}

	return s, nil
}

func (d *decoder) decodeInstance(name string, tbl section.TableInfo) (*cell.ObjectCell, error) {
	if tbl.DataType != format.TypeObject {
		return nil, fmt.Errorf("%w: named table %q holds %s", errs.ErrTableTypeMismatch, name, tbl.DataType)
	}
	s, err := d.tableSchema(tbl)
	if err != nil {
		return nil, err
	}
	if tbl.RowCount == 0 {
		return nil, fmt.Errorf("%w: named table %q has no rows", errs.ErrOffsetOutOfRange, name)
	}
	if tbl.RowCount > 1 {
		d.cfg.logger.Debug("named table holds more than one row, decoding the first",
			zap.String("instance", name),
			zap.Uint32("rows", tbl.RowCount))
	}

	return d.decodeObject(tbl.RowPos, s, 0)
}

func checkDepth(pos int, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: deeper than %d at %d", errs.ErrNestingTooDeep, maxDepth, pos)
	}

	return nil
}

// visit checks the nesting depth and spends one slot visit.
func (d *decoder) visit(pos int, depth int) error {
	if err := checkDepth(pos, depth); err != nil {
		return err
	}
	d.visits--
	if d.visits < 0 {
		return fmt.Errorf("%w: at %d", errs.ErrPointerBudget, pos)
	}

	return nil
}

// decodeObject decodes the row of s that starts at rowPos.
func (d *decoder) decodeObject(rowPos int, s *schema.Schema, depth int) (*cell.ObjectCell, error) {
	if err := checkDepth(rowPos, depth); err != nil {
		return nil, err
	}

	columns, err := s.SerializedColumns()
	if err != nil {
		return nil, err
	}

	row := make(map[string]cell.Cell, len(columns))
	for _, col := range columns {
		c, err := d.decodeSlot(rowPos+int(col.Offset()), col.DataType(), depth)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Name(), col.Name(), err)
		}
		row[col.Name()] = c
	}

	return cell.NewObject(s, row), nil
}

// decodeSlot decodes the value of type t whose slot starts at pos.
func (d *decoder) decodeSlot(pos int, t format.DataType, depth int) (cell.Cell, error) {
	if err := d.visit(pos, depth); err != nil {
		return nil, err
	}
	if err := d.r.Seek(pos); err != nil {
		return nil, err
	}
	if !t.IsRecursive() {
		return cell.DecodeInline(d.r, t)
	}

	target, ok, err := d.r.RelOffset()
	if err != nil {
		return nil, err
	}

	switch t {
	case format.TypeObject:
		if !ok {
			return nil, fmt.Errorf("%w: at %d", errs.ErrNullObjectPointer, pos)
		}

		return d.decodeObjectAt(target, depth+1)

	case format.TypeVector:
		count, err := d.r.Uint32()
		if err != nil {
			return nil, err
		}
		if !ok || count == 0 {
			return cell.NewEmptyVector(), nil
		}

		return d.decodeVector(target, count, depth+1)

	case format.TypeVariant:
		typeHash, err := d.r.Uint32()
		if err != nil {
			return nil, err
		}
		if !ok {
			return cell.NewVariant(typeHash, nil), nil
		}
		child, err := d.decodeElement(target, depth+1)
		if err != nil {
			return nil, fmt.Errorf("variant 0x%08X: %w", typeHash, err)
		}

		return cell.NewVariant(typeHash, child), nil

	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedType, t)
	}
}

// decodeObjectAt decodes the object row an Object slot points to.
func (d *decoder) decodeObjectAt(target int, depth int) (*cell.ObjectCell, error) {
	idx, err := d.owningTable(target)
	if err != nil {
		return nil, err
	}
	tbl := d.tables[idx]
	if tbl.DataType != format.TypeObject {
		return nil, fmt.Errorf("%w: object pointer into %s table at %d", errs.ErrTableTypeMismatch, tbl.DataType, target)
	}
	s, err := d.tableSchema(tbl)
	if err != nil {
		return nil, err
	}
	rowPos := tbl.RowPos + tbl.RowIndex(target)*int(tbl.RowSize)

	return d.decodeObject(rowPos, s, depth)
}

// decodeElement decodes the table element at target, typed by its table.
func (d *decoder) decodeElement(target int, depth int) (cell.Cell, error) {
	idx, err := d.owningTable(target)
	if err != nil {
		return nil, err
	}
	tbl := d.tables[idx]
	if tbl.DataType == format.TypeObject {
		return d.decodeObjectAt(target, depth)
	}

	return d.decodeSlot(target, tbl.DataType, depth)
}

// decodeVector decodes count consecutive elements starting at target.
func (d *decoder) decodeVector(target int, count uint32, depth int) (*cell.VectorCell, error) {
	idx, err := d.owningTable(target)
	if err != nil {
		return nil, err
	}
	tbl := d.tables[idx]

	if first := tbl.RowIndex(target); uint64(first)+uint64(count) > uint64(tbl.RowCount) {
		return nil, fmt.Errorf("%w: %d elements at %d overrun their table", errs.ErrOffsetOutOfRange, count, target)
	}

	children := make([]cell.Cell, 0, count)
	for i := range int(count) {
		pos := target + i*int(tbl.RowSize)

		var (
			c   cell.Cell
			err error
		)
		if tbl.DataType == format.TypeObject {
			c, err = d.decodeObjectAt(pos, depth)
		} else {
			c, err = d.decodeSlot(pos, tbl.DataType, depth)
		}
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		children = append(children, c)
	}

	return cell.NewVector(children...)
}
