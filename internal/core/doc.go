// Package core converts rows exported from a document database into rows a
// relational database can load.
//
// This package holds the conversion logic only. It knows nothing about
// files, databases or logging and can be used by the batch driver, the CLI
// or tests without modification.
//
// # Records
//
// A [Record] is an insertion-ordered set of fields. Rows enter as text only;
// during conversion a field may temporarily hold a [*Sequence] or a
// [*Mapping], and [Transform] guarantees every field is text again when it
// returns.
//
// # Pipeline
//
// [Transform] applies five stages in a fixed order:
//
//   - Sanitize: collapse doubled quotes and strip surrounding quotes
//   - Identifiers: "_id" and fields ending in "id"/"Id" become dashed
//     identifiers via [NormalizeID]; "_id" is renamed to "id"
//   - Arrays: tags[0], tags[1] and items[0].sku are folded into sequences,
//     and empty entries are dropped
//   - Objects: addr.city and addr.geo.lat are folded into nested mappings
//   - Encoding: sequences and mappings are rendered as compact JSON text
//
// Example:
//
//	rec := core.RecordFromPairs(
//	    "_id", "507f1f77bcf86cd799439011",
//	    "tags[0]", "x",
//	    "tags[1]", "",
//	    "name", "Bob",
//	)
//	out, _ := core.Transform(rec)
//	// id:   507f1f77-bcf8-6cd7-9943-901100000000
//	// tags: ["x"]
//	// name: Bob
//
// # Failure Policy
//
// Conversion is total. Identifiers of the wrong length become [FallbackID].
// Keys that match neither flattened notation pass through, as do array keys
// whose index exceeds [MaxArrayIndex]. Keys whose target already holds an
// incompatible value are kept as they are.
//
// A second Transform of its own output is a no-op, except for composites
// with an empty text leaf: their JSON contains "" and the sanitize stage
// collapses it.
package core
