package core

import (
	"regexp"
	"strings"
)

// repeatedQuotes matches the doubled quotes left behind by exports that
// escape a field more than once.
var repeatedQuotes = regexp.MustCompile(`"{2,}`)

// Sanitize removes quoting artifacts from a cell: runs of two or more double
// quotes collapse to one, then a single leading and a single trailing double
// quote are stripped. Sanitize is idempotent.
func Sanitize(s string) string {
	if !strings.Contains(s, `"`) {
		return s
	}
	s = repeatedQuotes.ReplaceAllString(s, `"`)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}

// sanitizeFields applies Sanitize to every scalar field in place.
func sanitizeFields(rec Record) {
	for _, key := range rec.Keys() {
		v, _ := rec.Get(key)
		if s, ok := v.(Scalar); ok {
			rec.Set(key, Scalar(Sanitize(string(s))))
		}
	}
}
