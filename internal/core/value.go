package core

// value.go defines the field values a record carries through the pipeline.
//
// A value is one of:
//   - Scalar:    text as read from the source
//   - *Sequence: an array rebuilt from name[i] keys
//   - *Mapping:  an object rebuilt from dotted keys
//   - nil:       a placeholder slot in a sparse sequence
//
// Sequences and mappings are pointers so that a structure built by one key
// can keep accumulating entries from later keys that share its prefix.

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Value is a field value. The concrete type is one of Scalar, *Sequence or
// *Mapping; nil marks an empty placeholder.
type Value interface {
	isValue()
}

// Scalar is a text value.
type Scalar string

// Sequence is an ordered list of values.
type Sequence struct {
	Items []Value
}

// Mapping is an insertion-ordered map of field name to value.
type Mapping struct {
	fields *orderedmap.OrderedMap[string, Value]
}

func (Scalar) isValue()    {}
func (*Sequence) isValue() {}
func (*Mapping) isValue()  {}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{fields: orderedmap.New[string, Value]()}
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	return m.fields.Get(key)
}

// Set stores v under key. An existing key keeps its position.
func (m *Mapping) Set(key string, v Value) {
	m.fields.Set(key, v)
}

// Delete removes key if present.
func (m *Mapping) Delete(key string) {
	m.fields.Delete(key)
}

// Len returns the number of fields.
func (m *Mapping) Len() int {
	return m.fields.Len()
}

// Keys returns a snapshot of the field names in insertion order. Callers
// that add or remove fields while walking the mapping iterate over this
// snapshot, never over the live map.
func (m *Mapping) Keys() []string {
	keys := make([]string, 0, m.fields.Len())
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Range calls fn for each field in insertion order until fn returns false.
func (m *Mapping) Range(fn func(key string, v Value) bool) {
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// grow extends the sequence with nil placeholders until it holds n items.
func (s *Sequence) grow(n int) {
	for len(s.Items) < n {
		s.Items = append(s.Items, nil)
	}
}

// compact drops placeholders and empty text, keeping the order of the rest.
func (s *Sequence) compact() {
	kept := s.Items[:0]
	for _, item := range s.Items {
		if isEmpty(item) {
			continue
		}
		kept = append(kept, item)
	}
	for i := len(kept); i < len(s.Items); i++ {
		s.Items[i] = nil
	}
	s.Items = kept
}

// isEmpty reports whether v is a placeholder or empty text.
func isEmpty(v Value) bool {
	switch t := v.(type) {
	case nil:
		return true
	case Scalar:
		return t == ""
	default:
		return false
	}
}

// Record is one row flowing through the pipeline. On input every value is
// a Scalar; after Transform every value is a Scalar again.
type Record struct {
	*Mapping
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{Mapping: NewMapping()}
}

// RecordFromRow builds a record from a header and one row of cells.
// Missing trailing cells become empty text; surplus cells are ignored.
func RecordFromRow(header, row []string) Record {
	rec := NewRecord()
	for i, name := range header {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		rec.Set(name, Scalar(cell))
	}
	return rec
}

// RecordFromPairs builds a record from alternating name, value arguments.
// It panics on an odd argument count; it exists for fixtures and tests.
func RecordFromPairs(kv ...string) Record {
	if len(kv)%2 != 0 {
		panic("core: RecordFromPairs needs an even number of arguments")
	}
	rec := NewRecord()
	for i := 0; i < len(kv); i += 2 {
		rec.Set(kv[i], Scalar(kv[i+1]))
	}
	return rec
}

// Text returns the text of a scalar field, or "" when the field is absent,
// a placeholder, or not yet encoded.
func (r Record) Text(key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	if s, ok := v.(Scalar); ok {
		return string(s)
	}
	return ""
}
