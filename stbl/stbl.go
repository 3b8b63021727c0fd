// Package stbl reads and writes string tables, the resources that map the
// 32-bit keys held by LocalizationKey cells to display text.
//
// # Binary Structure
//
//	┌─────────────────────────────────────────────────────┐
//	│ Magic "STBL" (4 bytes)                              │
//	│ Version (uint16, 5)                                 │
//	│ Compressed (uint8)                                  │
//	│ Entry count (uint64)                                │
//	│ Reserved (2 bytes)                                  │
//	│ String length (uint32, sum of len(value)+1)         │
//	├─────────────────────────────────────────────────────┤
//	│ Entries: key u32, flags u8, length u16, UTF-8 bytes │
//	└─────────────────────────────────────────────────────┘
//
// All integers are little-endian. Values are not null-terminated.
package stbl

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/arloliu/modkit/cell"
	"github.com/arloliu/modkit/cursor"
	"github.com/arloliu/modkit/errs"
	"github.com/arloliu/modkit/format"
	"github.com/arloliu/modkit/internal/hash"
	"github.com/arloliu/modkit/internal/pool"
)

const (
	Magic      = "STBL"
	Version    = uint16(5)
	HeaderSize = 21

	entryHeaderSize = 7
)

// Entry is one localized string.
type Entry struct {
	Key   uint32
	Flags uint8
	Value string
}

// StringTable is an ordered set of entries. Entries keep insertion order,
// which is also their encoded order.
//
// Note: StringTable is NOT thread-safe.
type StringTable struct {
	compressed uint8
	entries    []Entry
	index      map[uint32]int
}

// New creates an empty string table.
func New() *StringTable {
	return &StringTable{index: make(map[uint32]int)}
}

// Len returns the number of entries, duplicates included.
func (t *StringTable) Len() int {
	return len(t.entries)
}

// Compressed returns the header's compressed flag.
func (t *StringTable) Compressed() uint8 { return t.compressed }

// SetCompressed sets the header's compressed flag. It is written through and
// does not change the encoding.
func (t *StringTable) SetCompressed(v uint8) { t.compressed = v }

// Entries returns the entries in table order.
func (t *StringTable) Entries() []Entry {
	return slices.Clone(t.entries)
}

// Add appends a new entry.
//
// Returns:
//   - error: ErrDuplicateKey if key is already present
func (t *StringTable) Add(key uint32, value string) error {
	if _, ok := t.index[key]; ok {
		return fmt.Errorf("%w: 0x%08X", errs.ErrDuplicateKey, key)
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, Entry{Key: key, Value: value})

	return nil
}

// AddString adds value under the FNV-32 hash of value and returns the key.
func (t *StringTable) AddString(value string) (uint32, error) {
	key := hash.FNV32Exact(value)
	return key, t.Add(key, value)
}

// Get returns the value of the first entry with key.
func (t *StringTable) Get(key uint32) (string, bool) {
	i, ok := t.index[key]
	if !ok {
		return "", false
	}

	return t.entries[i].Value, true
}

// Set replaces the value of key, or appends a new entry.
func (t *StringTable) Set(key uint32, value string) {
	if i, ok := t.index[key]; ok {
		t.entries[i].Value = value
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, Entry{Key: key, Value: value})
}

// Remove deletes every entry with key and reports whether any existed.
func (t *StringTable) Remove(key uint32) bool {
	before := len(t.entries)
	t.entries = lo.Reject(t.entries, func(e Entry, _ int) bool { return e.Key == key })
	if len(t.entries) == before {
		return false
	}
	t.reindex()

	return true
}

func (t *StringTable) reindex() {
	t.index = make(map[uint32]int, len(t.entries))
	for i, e := range t.entries {
		if _, ok := t.index[e.Key]; !ok {
			t.index[e.Key] = i
		}
	}
}

// Resolve returns the text a LocalizationKey cell refers to.
func (t *StringTable) Resolve(c cell.Cell) (string, bool) {
	n, ok := c.(*cell.NumberCell)
	if !ok || n.DataType() != format.TypeLocalizationKey {
		return "", false
	}

	return t.Get(uint32(n.Int())) //nolint: gosec
}

// Validate checks for duplicate keys and values too long to encode.
func (t *StringTable) Validate() error {
	if dups := lo.FindDuplicatesBy(t.entries, func(e Entry) uint32 { return e.Key }); len(dups) > 0 {
		return fmt.Errorf("%w: 0x%08X", errs.ErrDuplicateKey, dups[0].Key)
	}
	for _, e := range t.entries {
		if len(e.Value) > math.MaxUint16 {
			return fmt.Errorf("%w: value of 0x%08X is %d bytes", errs.ErrValueOutOfRange, e.Key, len(e.Value))
		}
	}

	return nil
}

// Decode parses a string table buffer.
//
// Duplicate keys are kept as they appear; Get returns the first one and
// Encode refuses the table until they are resolved.
//
// Returns:
//   - *StringTable: decoded table
//   - error: ErrInvalidMagic, ErrUnsupportedVersion or ErrUnexpectedEOF
func Decode(data []byte) (*StringTable, error) {
	r := cursor.NewReader(data)

	magic, err := r.Bytes(4)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidHeaderSize, err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("%w: got %q, want %q", errs.ErrInvalidMagic, string(magic), Magic)
	}
	version, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: string table version %d", errs.ErrUnsupportedVersion, version)
	}

	t := New()
	if t.compressed, err = r.Uint8(); err != nil {
		return nil, err
	}
	count, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(2); err != nil {
		return nil, err
	}
	if _, err := r.Uint32(); err != nil {
		return nil, err
	}

	if remaining := uint64(r.Len() - r.Tell()); count > remaining/entryHeaderSize { //nolint: gosec
		return nil, fmt.Errorf("%w: %d entries in %d bytes", errs.ErrUnexpectedEOF, count, remaining)
	}

	t.entries = make([]Entry, 0, count)
	for i := range count {
		e, err := readEntry(r)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		t.entries = append(t.entries, e)
	}
	t.reindex()

	return t, nil
}

func readEntry(r *cursor.Reader) (Entry, error) {
	var (
		e   Entry
		err error
	)
	if e.Key, err = r.Uint32(); err != nil {
		return e, err
	}
	if e.Flags, err = r.Uint8(); err != nil {
		return e, err
	}
	length, err := r.Uint16()
	if err != nil {
		return e, err
	}
	b, err := r.Bytes(int(length))
	if err != nil {
		return e, err
	}
	e.Value = string(b)

	return e, nil
}

// Encode serializes the table.
//
// Returns:
//   - error: ErrDuplicateKey or ErrValueOutOfRange from Validate
func (t *StringTable) Encode() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	stringLength := lo.SumBy(t.entries, func(e Entry) int { return len(e.Value) + 1 })
	if uint64(stringLength) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes of strings", errs.ErrValueOutOfRange, stringLength)
	}

	buf := pool.GetDocumentBuffer()
	defer pool.PutDocumentBuffer(buf)

	w := cursor.NewWriter(buf)
	w.WriteBytes([]byte(Magic))
	w.WriteUint16(Version)
	w.WriteUint8(t.compressed)
	w.WriteUint64(uint64(len(t.entries)))
	w.Skip(2)
	w.WriteUint32(uint32(stringLength)) //nolint: gosec

	for _, e := range t.entries {
		w.WriteUint32(e.Key)
		w.WriteUint8(e.Flags)
		w.WriteUint16(uint16(len(e.Value))) //nolint: gosec
		w.WriteBytes([]byte(e.Value))
	}

	return slices.Clone(w.Bytes()), nil
}
