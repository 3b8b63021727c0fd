package simdata

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/arloliu/modkit/cell"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/collision"
	"github.com/arloliu/modkit/internal/hash"
	"github.com/arloliu/modkit/schema"
	"github.com/arloliu/modkit/section"
)

// table is one table of the output buffer, filled by the collect phase and
// positioned by the layout phase.
type table struct {
	name     mo.Option[string]
	dataType format.DataType
	schema   *schema.Schema
	rowSize  int
	align    uint32
	elems    []cell.Cell

	pos int
}

func (t *table) size() int {
	return t.rowSize * len(t.elems)
}

func (t *table) elemPos(i int) int {
	return t.pos + i*t.rowSize
}

// slotRef is a placed element: the table and index it was appended at.
type slotRef struct {
	tbl   *table
	index int
}

// stringPool is the deduplicated character pool.
type stringPool struct {
	offsets map[string]int
	strings []string
	size    int
}

func newStringPool() *stringPool {
	return &stringPool{offsets: make(map[string]int)}
}

// intern adds s once and returns its offset within the pool.
func (p *stringPool) intern(s string) int {
	if off, ok := p.offsets[s]; ok {
		return off
	}
	off := p.size
	p.offsets[s] = off
	p.strings = append(p.strings, s)
	p.size += len(s) + 1

	return off
}

// plan is the complete layout of one encode: every table, schema and string
// with its final absolute position.
type plan struct {
	cfg *encoderConfig
	doc *Document

	names *collision.Tracker
	pool  *stringPool

	schemas      []*schema.Schema // sorted by (hash, name)
	schemaByName map[string]*schema.Schema
	schemaPos    map[*schema.Schema]int
	columnPos    map[*schema.Schema]int

	instances    []*table
	objectTables map[string]*table
	rawTables    map[format.DataType]*table
	charTable    *table
	tables       []*table // directory order

	// targets maps a pointer-bearing cell to the element it points to.
	targets map[cell.Cell]slotRef

	tablePos  int
	schemaDir int
	poolPos   int
	end       int
}

func newPlan(doc *Document, cfg *encoderConfig) *plan {
	return &plan{
		cfg:          cfg,
		doc:          doc,
		names:        collision.NewTracker(),
		pool:         newStringPool(),
		schemaByName: make(map[string]*schema.Schema),
		schemaPos:    make(map[*schema.Schema]int),
		columnPos:    make(map[*schema.Schema]int),
		objectTables: make(map[string]*table),
		rawTables:    make(map[format.DataType]*table),
		targets:      make(map[cell.Cell]slotRef),
	}
}

// trackName records a name in the name→hash map and reports collisions.
func (p *plan) trackName(kind, name string, h uint32) error {
	collided, err := p.names.Track(name, h)
	if err != nil {
		if p.cfg.strictHashes {
			return fmt.Errorf("%s %q: %w", kind, name, err)
		}
		p.cfg.logger.Warn("name tracked with two hashes",
			zap.String("kind", kind),
			zap.String("name", name),
			zap.Uint32("hash", h))

		return nil
	}
	if collided {
		last := p.names.Collisions()[len(p.names.Collisions())-1]
		if p.cfg.strictHashes {
			return fmt.Errorf("%w: %q and %q hash to 0x%08X", errs.ErrHashCollision, last.Existing, last.Name, last.Hash)
		}
		p.cfg.logger.Warn("name hash collision",
			zap.String("kind", kind),
			zap.String("name", last.Name),
			zap.String("existing", last.Existing),
			zap.Uint32("hash", last.Hash))
	}

	return nil
}

// collectSchemas deduplicates schemas by name, derives their layout and
// sorts them by (hash, name).
func (p *plan) collectSchemas() error {
	for _, s := range p.doc.effectiveSchemas() {
		if existing, ok := p.schemaByName[s.Name()]; ok {
			if existing != s && !existing.Equals(s) {
				return fmt.Errorf("%w: schema %q", errs.ErrSchemaConflict, s.Name())
			}

			continue
		}
		if err := s.Layout(); err != nil {
			return err
		}
		p.schemaByName[s.Name()] = s
		p.schemas = append(p.schemas, s)
	}

	slices.SortFunc(p.schemas, func(a, b *schema.Schema) int {
		if c := cmp.Compare(a.Hash(), b.Hash()); c != 0 {
			return c
		}

		return cmp.Compare(a.Name(), b.Name())
	})

	return nil
}

// canonical returns the deduplicated schema an object is written with.
func (p *plan) canonical(obj *cell.ObjectCell) (*schema.Schema, error) {
	s := obj.Schema()
	if s == nil {
		return nil, errs.ErrMissingSchema
	}
	c, ok := p.schemaByName[s.Name()]
	if !ok {
		return nil, fmt.Errorf("%w: schema %q was not collected", errs.ErrUnplacedCell, s.Name())
	}

	return c, nil
}

func (p *plan) objectTable(s *schema.Schema) *table {
	if t, ok := p.objectTables[s.Name()]; ok {
		return t
	}
	rowSize, _ := s.RowSize()
	align, _ := s.Alignment()
	t := &table{
		dataType: format.TypeObject,
		schema:   s,
		rowSize:  int(rowSize),
		align:    align,
	}
	p.objectTables[s.Name()] = t

	return t
}

func (p *plan) rawTable(dt format.DataType) (*table, error) {
	if t, ok := p.rawTables[dt]; ok {
		return t, nil
	}
	width, err := format.SlotWidth(dt)
	if err != nil {
		return nil, err
	}
	align, _ := format.Alignment(dt)
	t := &table{dataType: dt, rowSize: int(width), align: align}
	p.rawTables[dt] = t

	return t, nil
}

func appendElem(t *table, c cell.Cell) slotRef {
	t.elems = append(t.elems, c)
	return slotRef{tbl: t, index: len(t.elems) - 1}
}

// collect walks every instance, routes each cell into its table and interns
// every name and string.
func (p *plan) collect() error {
	if err := p.collectSchemas(); err != nil {
		return err
	}

	for _, inst := range p.doc.instances {
		if err := p.trackName("instance", inst.Name, hash.FNV32(inst.Name)); err != nil {
			return err
		}
		p.pool.intern(inst.Name)
	}
	for _, s := range p.schemas {
		if err := p.trackName("schema", s.Name(), s.NameHash()); err != nil {
			return err
		}
		p.pool.intern(s.Name())
		cols, _ := s.SerializedColumns()
		for _, col := range cols {
			if err := p.trackName("column", col.Name(), col.NameHash()); err != nil {
				return err
			}
			p.pool.intern(col.Name())
		}
	}

	for _, inst := range p.doc.instances {
		s, err := p.canonical(inst.Object)
		if err != nil {
			return fmt.Errorf("instance %q: %w", inst.Name, err)
		}
		rowSize, _ := s.RowSize()
		align, _ := s.Alignment()
		t := &table{
			name:     mo.Some(inst.Name),
			dataType: format.TypeObject,
			schema:   s,
			rowSize:  int(rowSize),
			align:    align,
			elems:    []cell.Cell{inst.Object},
		}
		p.instances = append(p.instances, t)

		if err := p.walkRow(inst.Object, s); err != nil {
			return fmt.Errorf("instance %q: %w", inst.Name, err)
		}
	}

	return p.checkUnparsed()
}

// checkUnparsed refuses to drop instances the decoder skipped unless the
// caller allowed it.
func (p *plan) checkUnparsed() error {
	if len(p.doc.unparsed) == 0 {
		return nil
	}
	names := lo.Map(p.doc.unparsed, func(u Unparsed, _ int) string { return u.Name })
	if !p.cfg.dropUnparsed {
		return fmt.Errorf("%w: %q", errs.ErrUnparsedInstance, names)
	}
	for _, name := range names {
		p.cfg.logger.Warn("unparsed instance is not written", zap.String("instance", name))
	}

	return nil
}

// walkRow visits the slots of one object row in serialized column order.
func (p *plan) walkRow(obj *cell.ObjectCell, s *schema.Schema) error {
	cols, err := s.SerializedColumns()
	if err != nil {
		return err
	}
	for _, col := range cols {
		child, ok := obj.Get(col.Name())
		if !ok {
			return fmt.Errorf("%w: schema %q column %q has no cell", errs.ErrRowArity, s.Name(), col.Name())
		}
		if child.DataType() != col.DataType() {
			return fmt.Errorf("%w: schema %q column %q is %s, cell is %s",
				errs.ErrColumnType, s.Name(), col.Name(), col.DataType(), child.DataType())
		}
		if err := p.visitSlot(child); err != nil {
			return fmt.Errorf("%s.%s: %w", s.Name(), col.Name(), err)
		}
	}

	return nil
}

// placeObjects appends objects as consecutive rows of their schema table and
// then walks their rows.
func (p *plan) placeObjects(objs ...*cell.ObjectCell) (slotRef, error) {
	s, err := p.canonical(objs[0])
	if err != nil {
		return slotRef{}, err
	}
	t := p.objectTable(s)

	first := slotRef{}
	for i, obj := range objs {
		os, err := p.canonical(obj)
		if err != nil {
			return slotRef{}, err
		}
		if os != s {
			return slotRef{}, fmt.Errorf("%w: vector mixes schemas %q and %q", errs.ErrMixedVectorTypes, s.Name(), os.Name())
		}
		ref := appendElem(t, obj)
		p.targets[obj] = ref
		if i == 0 {
			first = ref
		}
	}
	for _, obj := range objs {
		if err := p.walkRow(obj, s); err != nil {
			return slotRef{}, err
		}
	}

	return first, nil
}

// visitSlot routes the payload of a cell occupying a slot.
func (p *plan) visitSlot(c cell.Cell) error {
	switch v := c.(type) {
	case *cell.TextCell:
		if v.DataType() == format.TypeString {
			p.pool.intern(v.Value())
		}

	case *cell.HashedStringCell:
		p.pool.intern(v.Value())

	case *cell.ObjectCell:
		_, err := p.placeObjects(v)
		return err

	case *cell.VectorCell:
		return p.placeVector(v)

	case *cell.VariantCell:
		child := v.Child()
		if child == nil {
			return nil
		}
		if obj, ok := child.(*cell.ObjectCell); ok {
			ref, err := p.placeObjects(obj)
			if err != nil {
				return err
			}
			p.targets[v] = ref

			return nil
		}
		t, err := p.rawTable(child.DataType())
		if err != nil {
			return err
		}
		p.targets[v] = appendElem(t, child)

		return p.visitSlot(child)
	}

	return nil
}

func (p *plan) placeVector(v *cell.VectorCell) error {
	if v.Len() == 0 {
		return nil
	}
	children := v.Children()
	childType, _ := v.ChildType()
	for i, c := range children {
		if c.DataType() != childType {
			return fmt.Errorf("%w: element %d is %s, element 0 is %s", errs.ErrMixedVectorTypes, i, c.DataType(), childType)
		}
	}

	if childType == format.TypeObject {
		objs := lo.Map(children, func(c cell.Cell, _ int) *cell.ObjectCell { return c.(*cell.ObjectCell) })
		ref, err := p.placeObjects(objs...)
		if err != nil {
			return err
		}
		p.targets[v] = ref

		return nil
	}

	t, err := p.rawTable(childType)
	if err != nil {
		return err
	}
	// the elements must be contiguous, so all are appended before any is walked
	for i, c := range children {
		ref := appendElem(t, c)
		if i == 0 {
			p.targets[v] = ref
		}
	}
	for _, c := range children {
		if err := p.visitSlot(c); err != nil {
			return err
		}
	}

	return nil
}

// layout fixes the directory order and every absolute position.
//
// Sections are laid out as header, table directory, schema directory with
// all column records after it, table data, character pool. Every section
// starts on a 16-byte boundary and every table on max(16, element alignment).
// Tables of zero-column schemas reserve their start position.
func (p *plan) layout() {
	p.tables = append(p.tables, p.instances...)

	objectTables := lo.Values(p.objectTables)
	slices.SortFunc(objectTables, func(a, b *table) int {
		if c := cmp.Compare(a.schema.Hash(), b.schema.Hash()); c != 0 {
			return c
		}

		return cmp.Compare(a.schema.Name(), b.schema.Name())
	})
	p.tables = append(p.tables, objectTables...)

	rawTables := lo.Values(p.rawTables)
	slices.SortFunc(rawTables, func(a, b *table) int {
		return cmp.Compare(a.dataType, b.dataType)
	})
	p.tables = append(p.tables, rawTables...)

	if p.pool.size > 0 {
		p.charTable = &table{
			dataType: format.TypeCharacter,
			rowSize:  1,
			align:    1,
			elems:    make([]cell.Cell, 0),
		}
		p.tables = append(p.tables, p.charTable)
	}

	pos := section.HeaderSize(p.doc.version)

	pos = format.AlignUp(pos, section.TableAlignment)
	p.tablePos = pos
	pos += len(p.tables) * section.TableInfoSize

	pos = format.AlignUp(pos, section.TableAlignment)
	p.schemaDir = pos
	pos += len(p.schemas) * section.SchemaEntrySize
	for i, s := range p.schemas {
		p.schemaPos[s] = p.schemaDir + i*section.SchemaEntrySize
	}
	for _, s := range p.schemas {
		p.columnPos[s] = pos
		pos += s.Len() * section.ColumnSize
	}

	for _, t := range p.tables {
		if t == p.charTable {
			continue
		}
		pos = format.AlignUp(pos, max(section.TableAlignment, t.align))
		t.pos = pos
		pos += t.size()
		if t.size() == 0 {
			// a zero-width table is found by its exact start, so no other
			// table may start there
			pos++
		}
	}

	pos = format.AlignUp(pos, section.TableAlignment)
	p.poolPos = pos
	if p.charTable != nil {
		p.charTable.pos = pos
	}
	pos += p.pool.size

	p.end = pos
}

// target returns the absolute position c points to.
func (p *plan) target(c cell.Cell) mo.Option[int] {
	switch v := c.(type) {
	case *cell.TextCell:
		if v.DataType() == format.TypeString {
			return mo.Some(p.stringPos(v.Value()))
		}
	case *cell.HashedStringCell:
		return mo.Some(p.stringPos(v.Value()))
	case *cell.ObjectCell, *cell.VectorCell, *cell.VariantCell:
		if ref, ok := p.targets[c]; ok {
			return mo.Some(ref.tbl.elemPos(ref.index))
		}
	}

	return mo.None[int]()
}

func (p *plan) stringPos(s string) int {
	return p.poolPos + p.pool.intern(s)
}

// charCount returns the row count of the character table.
func (p *plan) charCount() int {
	return p.pool.size
}
