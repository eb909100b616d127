package core

// rebuild.go reconstructs arrays and nested objects from the flattened
// column names document exports produce:
//
//	tags[0], tags[1]            -> tags: ["...", "..."]
//	items[0].sku, items[1].sku  -> items: [{"sku": "..."}, {"sku": "..."}]
//	addr.city, addr.geo.lat     -> addr: {"city": "...", "geo": {"lat": "..."}}
//
// Both passes walk a snapshot of the field names taken before the pass
// starts. A key whose target already holds an incompatible value is left in
// the record untouched.

import (
	"regexp"
	"strconv"
	"strings"
)

// arrayKey matches name[index] with an optional remainder such as ".field".
var arrayKey = regexp.MustCompile(`^([^\[]+)\[(\d+)\](.*)$`)

// MaxArrayIndex bounds the index accepted in name[index] keys. Larger
// indexes are left as plain fields rather than allocating huge placeholder
// runs.
const MaxArrayIndex = 1 << 16

// arrayPath is a decomposed name[index]rest key.
type arrayPath struct {
	name  string
	index int
	rest  string
}

// parseArrayKey splits an array-notation key. ok is false for keys that are
// not array notation.
func parseArrayKey(key string) (p arrayPath, ok bool) {
	m := arrayKey.FindStringSubmatch(key)
	if m == nil {
		return arrayPath{}, false
	}
	index, err := strconv.Atoi(m[2])
	if err != nil || index > MaxArrayIndex {
		return arrayPath{}, false
	}
	return arrayPath{name: m[1], index: index, rest: m[3]}, true
}

// rebuildArrays folds every name[index] key into a sequence stored under
// name, then compacts every sequence in the record.
//
// Both branches grow the sequence with placeholders up to index+1 before
// writing, so an entry always lands at its own index; compaction removes the
// placeholders afterwards.
func rebuildArrays(rec Record) {
	for _, key := range rec.Keys() {
		p, ok := parseArrayKey(key)
		if !ok {
			continue
		}
		value, _ := rec.Get(key)

		seq, ok := ensureSequence(rec, p.name)
		if !ok {
			continue
		}

		if p.rest != "" {
			nestedKey := strings.TrimPrefix(p.rest, ".")
			seq.grow(p.index + 1)
			switch slot := seq.Items[p.index].(type) {
			case nil:
				obj := NewMapping()
				obj.Set(nestedKey, value)
				seq.Items[p.index] = obj
			case *Mapping:
				slot.Set(nestedKey, value)
			default:
				continue
			}
		} else if !isEmpty(value) {
			seq.grow(p.index + 1)
			seq.Items[p.index] = value
		}

		rec.Delete(key)
	}

	rec.Range(func(_ string, v Value) bool {
		if seq, ok := v.(*Sequence); ok {
			seq.compact()
		}
		return true
	})
}

// ensureSequence returns the sequence stored under name, creating it when
// the field is absent or empty. ok is false when name holds anything else.
func ensureSequence(rec Record, name string) (*Sequence, bool) {
	v, present := rec.Get(name)
	if present && !isEmpty(v) {
		seq, ok := v.(*Sequence)
		return seq, ok
	}
	seq := &Sequence{}
	rec.Set(name, seq)
	return seq, true
}

// rebuildObjects folds every dotted key into a mapping stored under the
// text before its first dot. Keys sharing that prefix accumulate into one
// shared mapping.
func rebuildObjects(rec Record) {
	builders := make(map[string]*Mapping)

	for _, key := range rec.Keys() {
		parts := strings.Split(key, ".")
		if len(parts) < 2 || parts[0] == "" {
			continue
		}
		mainKey := parts[0]
		path, leaf := parts[1:len(parts)-1], parts[len(parts)-1]

		builder, ok := builders[mainKey]
		if !ok {
			if existing, present := rec.Get(mainKey); present && !isEmpty(existing) {
				continue
			}
			builder = NewMapping()
		}

		if !canPlace(builder, path, leaf) {
			continue
		}
		value, _ := rec.Get(key)
		place(builder, path, leaf, value)

		builders[mainKey] = builder
		rec.Set(mainKey, builder)
		rec.Delete(key)
	}
}

// canPlace reports whether leaf can be set under path without replacing a
// non-mapping intermediate or an existing nested mapping.
func canPlace(root *Mapping, path []string, leaf string) bool {
	current := root
	for _, part := range path {
		next, ok := current.Get(part)
		if !ok || isEmpty(next) {
			return true
		}
		m, isMapping := next.(*Mapping)
		if !isMapping {
			return false
		}
		current = m
	}
	existing, ok := current.Get(leaf)
	if !ok {
		return true
	}
	_, isMapping := existing.(*Mapping)
	return !isMapping
}

// place creates the intermediate mappings along path and sets leaf.
func place(root *Mapping, path []string, leaf string, value Value) {
	current := root
	for _, part := range path {
		next, ok := current.Get(part)
		m, isMapping := next.(*Mapping)
		if !ok || !isMapping {
			m = NewMapping()
			current.Set(part, m)
		}
		current = m
	}
	current.Set(leaf, value)
}
