// Package section defines the fixed-size binary records of the SimData format.
//
// It handles serialization of the header, table directory entries, schema
// directory entries and column records. Higher level packages decide where
// each record goes; this package only knows how one record is laid out.
//
// # Buffer Structure
//
// The encoder lays sections out in a fixed order. Every section start is
// aligned to TableAlignment, and every table start additionally satisfies the
// alignment of its elements:
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Header (24 or 28 bytes)                                 │
//	├─────────────────────────────────────────────────────────┤
//	│ Padding (to 16 bytes)                                   │
//	├─────────────────────────────────────────────────────────┤
//	│ Table directory (N × 28 bytes)                          │
//	├─────────────────────────────────────────────────────────┤
//	│ Padding (to 16 bytes)                                   │
//	├─────────────────────────────────────────────────────────┤
//	│ Schema directory (M × 24 bytes)                         │
//	│ Column records (K × 20 bytes)                           │
//	├─────────────────────────────────────────────────────────┤
//	│ Table data, one aligned run per table                   │
//	├─────────────────────────────────────────────────────────┤
//	│ Character pool (null-terminated strings)                │
//	└─────────────────────────────────────────────────────────┘
//
// # Pointers
//
// Every pointer field is a signed 32-bit offset measured from the byte right
// after the field, never from the start of the buffer or of a section. The
// value cursor.RelOffsetNull marks an absent pointer. Records in this package
// expose pointers as absolute positions (mo.Option[int] when nullable) and
// convert on read and write.
//
// # Header Format
//
//	Bytes  | Field        | Type   | Description
//	-------|--------------|--------|---------------------------------
//	0-3    | Magic        | [4]u8  | "DATA"
//	4-7    | Version      | uint32 | 0x100 or 0x101
//	8-11   | TablePos     | int32  | relative pointer to table directory
//	12-15  | TableCount   | int32  | number of tables
//	16-19  | SchemaPos    | int32  | relative pointer to schema directory
//	20-23  | SchemaCount  | int32  | number of schemas
//	24-27  | Unused       | uint32 | only for version 0x101
//
// # Table Directory Entry
//
//	Bytes  | Field     | Type   | Description
//	-------|-----------|--------|---------------------------------
//	0-3    | NamePos   | int32  | nullable pointer into the character pool
//	4-7    | NameHash  | uint32 | FNV-32 of the name
//	8-11   | SchemaPos | int32  | nullable pointer to a schema entry
//	12-15  | DataType  | uint32 | element type
//	16-19  | RowSize   | uint32 | bytes per element
//	20-23  | RowPos    | int32  | pointer to the first element
//	24-27  | RowCount  | uint32 | number of elements
//
// # Schema Entry and Column Record
//
//	Schema entry (24 bytes): NamePos i32, NameHash u32, SchemaHash u32,
//	SchemaSize u32, ColumnPos i32, ColumnCount u32.
//
//	Column record (20 bytes): NamePos i32, NameHash u32, DataType u16,
//	Flags u16, Offset u32, SchemaPos i32 (reserved, null).
package section
