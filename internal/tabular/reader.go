// Package tabular reads and writes the CSV files exchanged with document
// database export tools.
//
// A file starts with a header row naming the flattened fields; every
// following row becomes one core.Record whose values are all text. Writing
// goes the other way: the header is the union of the records' field names
// and the file is replaced atomically.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/docrow/internal/core"
)

// ErrNoHeader is returned when a source has no header row.
var ErrNoHeader = errors.New("csv has no header row")

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// Encoding is the source charset label; empty means UTF-8.
	Encoding string

	// LazyQuotes tolerates bare quotes in unquoted fields and doubled quotes
	// that never close, both common in hand-edited exports.
	LazyQuotes bool
}

// Reader yields records from a CSV source, one per data row.
type Reader struct {
	csv    *csv.Reader
	header []string
	rows   int
}

// NewReader decodes r, reads the header row and returns a reader positioned
// at the first data row.
func NewReader(r io.Reader, opts ReaderOptions) (*Reader, error) {
	decoded, err := NewDecoder(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = opts.LazyQuotes

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 1 && header[0] == "" {
		return nil, ErrNoHeader
	}

	return &Reader{csv: cr, header: header}, nil
}

// Header returns the field names from the header row.
func (r *Reader) Header() []string {
	return r.header
}

// Rows returns the number of data rows read so far.
func (r *Reader) Rows() int {
	return r.rows
}

// Next returns the next record, or io.EOF when the source is exhausted.
// Rows shorter than the header are padded with empty text.
func (r *Reader) Next() (core.Record, error) {
	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return core.Record{}, io.EOF
		}
		return core.Record{}, fmt.Errorf("read row %d: %w", r.rows+1, err)
	}
	if len(row) > len(r.header) {
		line, _ := r.csv.FieldPos(0)
		return core.Record{}, fmt.Errorf("line %d: row has %d fields, header has %d", line, len(row), len(r.header))
	}

	r.rows++
	return core.RecordFromRow(r.header, row), nil
}
