package core

import "fmt"

// Transform runs the conversion pipeline on one record:
//
//  1. sanitize every text field
//  2. convert identifier fields ("_id" becomes "id")
//  3. rebuild arrays from name[index] keys
//  4. rebuild objects from dotted keys
//  5. encode every array and object as JSON text
//
// The stages always run in this order; each relies on the previous one
// having finished. rec must not be used after the call; the returned record
// holds only Scalar values.
func Transform(rec Record) (Record, error) {
	sanitizeFields(rec)
	rec = convertIdentifiers(rec)
	rebuildArrays(rec)
	rebuildObjects(rec)
	if err := encodeComposites(rec); err != nil {
		return Record{}, fmt.Errorf("encode record: %w", err)
	}
	return rec, nil
}

// TransformRow builds a record from a header and row and transforms it.
func TransformRow(header, row []string) (Record, error) {
	return Transform(RecordFromRow(header, row))
}
