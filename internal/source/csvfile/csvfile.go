// Package csvfile reads tables from CSV exports on disk.
package csvfile

import (
	"context"
	"fmt"
	"os"

	"github.com/JonMunkholm/docrow/internal/config"
	"github.com/JonMunkholm/docrow/internal/core"
	"github.com/JonMunkholm/docrow/internal/driver"
	"github.com/JonMunkholm/docrow/internal/logging"
	"github.com/JonMunkholm/docrow/internal/tabular"
)

// ctxCheckInterval is how many rows are read between context checks.
const ctxCheckInterval = 1024

func init() {
	driver.RegisterSource(config.SourceCSV, func(ctx context.Context, cfg *config.Config) (driver.Source, error) {
		return New(tabular.ReaderOptions{
			Encoding:   cfg.Source.Encoding,
			LazyQuotes: cfg.Source.LazyQuotes,
		})
	})
}

// Source opens CSV files by path.
type Source struct {
	opts tabular.ReaderOptions
}

// New creates a source. It fails early when the encoding is unknown.
func New(opts tabular.ReaderOptions) (*Source, error) {
	if _, err := tabular.LookupEncoding(opts.Encoding); err != nil {
		return nil, err
	}
	return &Source{opts: opts}, nil
}

// Open opens the CSV file at path and reads its header.
func (s *Source) Open(ctx context.Context, path string) (driver.RowReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	counter := tabular.NewCountingReader(f)
	r, err := tabular.NewReader(counter, s.opts)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &rowReader{ctx: ctx, path: path, file: f, counter: counter, reader: r}, nil
}

// Close is a no-op; files are closed per table.
func (s *Source) Close() error {
	return nil
}

type rowReader struct {
	ctx     context.Context
	path    string
	file    *os.File
	counter *tabular.CountingReader
	reader  *tabular.Reader
	closed  bool
}

func (r *rowReader) Next() (core.Record, error) {
	if r.reader.Rows()%ctxCheckInterval == 0 {
		if err := r.ctx.Err(); err != nil {
			return core.Record{}, err
		}
	}
	return r.reader.Next()
}

func (r *rowReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	logging.FromContext(r.ctx).Debug("source read",
		"path", r.path,
		"rows", r.reader.Rows(),
		"bytes", r.counter.BytesRead,
	)
	return r.file.Close()
}
