// Package simdata reads and writes SimData documents.
//
// A SimData buffer holds a set of schemas and a set of named instances, each
// instance being one object row of some schema. Decode turns a buffer into a
// Document by chasing self-relative pointers through the table directory;
// Encode lays a Document out and writes it back.
//
// # Decoding
//
//	doc, err := simdata.Decode(data)
//	if err != nil {
//	    return err
//	}
//	for _, inst := range doc.Instances() {
//	    fmt.Println(inst.Name, inst.Object.Schema().Name())
//	}
//
// Every pointer is resolved to the table whose element range contains it. The
// table type decides how the element is read: object tables yield object
// rows of their schema, every other table yields inline values. Decoding is
// strict by default; WithRecovery accepts a bad header and WithTolerant turns
// unresolvable instances into Document.Unparsed entries. Encode refuses to
// write such a document unless WithDropUnparsed is given.
//
// # Encoding
//
// Encode never patches bytes it already wrote. A collect pass walks the
// instances and routes every cell into a table:
//
//   - each instance gets its own named object table with one row
//   - nested objects go to one unnamed table per schema, vector elements
//     kept contiguous
//   - other vector elements and variant payloads go to one table per type
//   - strings are deduplicated into a single character pool
//
// A layout pass then assigns every absolute position, and the emit pass
// writes each section in order with every pointer already known.
//
// Output is deterministic: schemas are sorted by hash, columns by name hash,
// and tables and pool strings follow a fixed visiting order, so the same
// logical document always encodes to the same bytes.
package simdata
