package tabular

// decode.go turns raw source bytes into clean UTF-8 for the CSV reader.
//
// Exports are usually UTF-8, often with a BOM when they passed through a
// Windows tool. NewDecoder strips a UTF-8 BOM, honours UTF-16 BOMs, converts
// from the configured charset otherwise, and replaces invalid sequences with
// U+FFFD so the CSV lexer never sees broken text.

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned for charset names that are not recognised.
var ErrUnknownEncoding = errors.New("unknown encoding")

// LookupEncoding resolves a charset label such as "utf-8", "gbk" or
// "windows-1252". An empty name means UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// NewDecoder wraps r so that it yields UTF-8 decoded from the named charset.
func NewDecoder(r io.Reader, charset string) (io.Reader, error) {
	enc, err := LookupEncoding(charset)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// CountingReader wraps an io.Reader to track bytes read.
// The csv source reports it once a table has been read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}
