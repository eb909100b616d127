package tabular

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/docrow/internal/core"
)

// Header returns the union of field names across records in first-seen
// order. Records in one table usually share a shape, but documents that lack
// a field, or whose arrays were shorter, contribute fewer columns.
func Header(records []core.Record) []string {
	seen := make(map[string]bool)
	var header []string
	for _, rec := range records {
		rec.Range(func(key string, _ core.Value) bool {
			if !seen[key] {
				seen[key] = true
				header = append(header, key)
			}
			return true
		})
	}
	return header
}

// Cells lays a record out along header. Absent fields become empty text.
func Cells(header []string, rec core.Record) []string {
	row := make([]string, len(header))
	for i, name := range header {
		row[i] = rec.Text(name)
	}
	return row
}

// Write serializes records as CSV with a header row. Fields containing the
// delimiter, a quote or a line break are quoted with quotes doubled.
// Nothing is written for an empty record set.
func Write(w io.Writer, records []core.Record) error {
	if len(records) == 0 {
		return nil
	}

	header := Header(records)
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(Cells(header, rec)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteFile writes records to path atomically. The data goes to a temporary
// file in the same directory which is synced and then renamed over path, so
// a failure never leaves a partial file behind.
func WriteFile(path string, records []core.Record) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err := Write(bw, records); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// MissingColumns returns the names in header that existing lacks, in header
// order. With fold set, names compare case-insensitively, as they do in
// SQLite and SQL Server's default collation.
func MissingColumns(existing, header []string, fold bool) []string {
	norm := func(s string) string {
		if fold {
			return strings.ToLower(s)
		}
		return s
	}

	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[norm(c)] = true
	}

	var missing []string
	for _, c := range header {
		if !have[norm(c)] {
			have[norm(c)] = true
			missing = append(missing, c)
		}
	}
	return missing
}
