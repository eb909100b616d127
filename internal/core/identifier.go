package core

// identifier.go converts document identifiers (24 characters, normally hex)
// into the dashed 36-character form relational databases accept as a UUID
// column.
//
// Conversion is total: input of any other length yields FallbackID instead
// of an error. The characters themselves are never checked.

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// FallbackID is returned for any identifier that cannot be converted.
var FallbackID = uuid.Nil.String()

// DocumentIDLength is the length of a hex-encoded document identifier.
const DocumentIDLength = 24

// uuidHexLength is the number of hex digits in a dashed identifier.
const uuidHexLength = 32

// NormalizeID converts a 24-character document identifier into the
// 8-4-4-4-12 dashed form. The input is padded on the right with '0' to 32
// characters; the original characters keep their order and case, whether or
// not they are hex digits. Length is counted in characters.
//
// Input that is not exactly 24 characters long yields FallbackID.
func NormalizeID(id string) string {
	if utf8.RuneCountInString(id) != DocumentIDLength {
		return FallbackID
	}

	padded := []rune(id + strings.Repeat("0", uuidHexLength-DocumentIDLength))
	return string(padded[0:8]) + "-" + string(padded[8:12]) + "-" + string(padded[12:16]) + "-" +
		string(padded[16:20]) + "-" + string(padded[20:32])
}

// IsIdentifierField reports whether a field named name holding value is
// subject to identifier conversion by name convention. The primary key
// "_id" is handled separately by the identifier stage.
func IsIdentifierField(name, value string) bool {
	if !strings.HasSuffix(name, "id") && !strings.HasSuffix(name, "Id") {
		return false
	}
	n := utf8.RuneCountInString(value)
	return n == DocumentIDLength || n == 0
}

// convertIdentifiers renames "_id" to "id" (keeping its position) and
// converts every identifier field. The result is a new record; rec is not
// modified.
func convertIdentifiers(rec Record) Record {
	out := NewRecord()
	primarySet := false

	for _, key := range rec.Keys() {
		v, _ := rec.Get(key)
		text, isText := v.(Scalar)

		switch {
		case key == "_id":
			out.Set("id", Scalar(NormalizeID(string(text))))
			primarySet = true
		case key == "id" && primarySet:
			// "_id" already supplied the primary key.
		case isText && IsIdentifierField(key, string(text)):
			out.Set(key, Scalar(NormalizeID(string(text))))
		default:
			out.Set(key, v)
		}
	}
	return out
}
