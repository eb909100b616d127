// Package driver runs table conversions: it reads each table from a Source,
// passes every row through the record transformer, and hands the converted
// rows to a Destination.
//
// Tables are independent. Each one runs under its own timeout, buffers its
// converted rows in memory and is written in a single call, so a table either
// lands completely or not at all. A failing table is recorded in the Report
// and the remaining tables carry on.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/docrow/internal/config"
	"github.com/JonMunkholm/docrow/internal/core"
	"github.com/JonMunkholm/docrow/internal/logging"
)

// RowReader yields the rows of one table. Next returns io.EOF after the last
// row.
type RowReader interface {
	Next() (core.Record, error)
	Close() error
}

// Source opens tables for reading. The locator is a file path, a collection
// name, or whatever else the source kind uses to address a table.
type Source interface {
	Open(ctx context.Context, locator string) (RowReader, error)
	Close() error
}

// Destination persists the converted rows of one table. Write must replace
// the destination contents all-or-nothing.
type Destination interface {
	Write(ctx context.Context, locator string, rows []core.Record) error
	Close() error
}

// TransformFunc converts one source record into an output record.
type TransformFunc func(core.Record) (core.Record, error)

// Options tunes a Driver.
type Options struct {
	// Workers bounds how many tables convert at once.
	Workers int

	// TableTimeout bounds a single table; zero means no limit.
	TableTimeout time.Duration

	// DryRun transforms rows without writing them.
	DryRun bool

	// Transform defaults to core.Transform.
	Transform TransformFunc
}

// Driver converts tables from a source to a destination.
type Driver struct {
	source  Source
	dest    Destination
	opts    Options
	limiter *Limiter
}

// New creates a driver. dest may be nil when opts.DryRun is set.
func New(source Source, dest Destination, opts Options) *Driver {
	if opts.Transform == nil {
		opts.Transform = core.Transform
	}
	return &Driver{
		source:  source,
		dest:    dest,
		opts:    opts,
		limiter: NewLimiter(opts.Workers),
	}
}

// Run converts every job and reports the outcome of each. Run itself only
// stops early when ctx is cancelled; table failures are in the report.
func (d *Driver) Run(ctx context.Context, jobs []config.Job) *Report {
	ctx, runID := logging.WithRun(ctx)
	logger := logging.FromContext(ctx)

	report := &Report{
		RunID:   runID,
		Started: time.Now(),
		Tables:  make([]TableResult, len(jobs)),
	}

	logger.Info("conversion started",
		"tables", len(jobs),
		"workers", d.limiter.Max(),
		"dry_run", d.opts.DryRun,
	)

	var g errgroup.Group
	for i, job := range jobs {
		report.Tables[i] = TableResult{Table: job.Table, Source: job.Source, Destination: job.Destination}

		g.Go(func() error {
			if err := d.limiter.Acquire(ctx); err != nil {
				report.Tables[i].Err = &TableError{Table: job.Table, Stage: StageRead, Err: err}
				return nil
			}
			defer d.limiter.Release()

			report.Tables[i] = d.RunTable(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(report.Started)

	failed := report.Failed()
	logger.Info("conversion finished",
		"tables", len(jobs),
		"failed", len(failed),
		"rows", report.RowsWritten(),
		"duration", report.Duration,
	)
	for _, res := range failed {
		msg := MapError(res.Err)
		logger.Error("table failed",
			"table", res.Table,
			"code", msg.Code,
			"hint", msg.Action,
			"error", res.Err,
		)
	}

	return report
}

// RunTable converts a single table.
func (d *Driver) RunTable(ctx context.Context, job config.Job) TableResult {
	res := TableResult{Table: job.Table, Source: job.Source, Destination: job.Destination}
	start := time.Now()

	if d.opts.TableTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.TableTimeout)
		defer cancel()
	}

	logger := logging.WithFields(ctx, "table", job.Table)
	logger.Info("table started",
		"source", job.Source,
		"destination", job.Destination,
		"active", d.limiter.Active(),
	)

	rows, read, err := d.convert(ctx, job)
	res.RowsRead = read
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	if d.opts.DryRun {
		if len(rows) > 0 {
			sample, _ := core.Encode(rows[0].Mapping)
			logger.Info("dry run sample", "row", sample)
		}
		res.Duration = time.Since(start)
		logger.Info("table converted (dry run)", "rows", len(rows), "duration", res.Duration)
		return res
	}

	if d.dest == nil {
		res.Err = &TableError{Table: job.Table, Stage: StageWrite, Err: errors.New("no destination configured")}
		res.Duration = time.Since(start)
		return res
	}

	if err := d.dest.Write(ctx, job.Destination, rows); err != nil {
		res.Err = &TableError{Table: job.Table, Stage: StageWrite, Err: err}
		res.Duration = time.Since(start)
		return res
	}

	res.RowsWritten = len(rows)
	res.Duration = time.Since(start)
	logger.Info("table completed", "rows", res.RowsWritten, "duration", res.Duration)
	return res
}

// convert reads and transforms every row of a table.
func (d *Driver) convert(ctx context.Context, job config.Job) ([]core.Record, int, error) {
	reader, err := d.source.Open(ctx, job.Source)
	if err != nil {
		return nil, 0, &TableError{Table: job.Table, Stage: StageRead, Err: err}
	}
	defer reader.Close()

	var rows []core.Record
	read := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, read, &TableError{Table: job.Table, Stage: StageRead, Err: err}
		}

		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, read, &TableError{Table: job.Table, Stage: StageRead, Err: err}
		}
		read++

		out, err := d.transform(rec)
		if err != nil {
			return nil, read, &TableError{Table: job.Table, Stage: StageTransform, Row: read, Err: err}
		}
		rows = append(rows, out)
	}

	if err := reader.Close(); err != nil {
		return nil, read, &TableError{Table: job.Table, Stage: StageRead, Err: err}
	}
	return rows, read, nil
}

// transform runs the transform function, turning a panic into an error so
// one malformed row cannot take down the other tables.
func (d *Driver) transform(rec core.Record) (out core.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, r, debug.Stack())
		}
	}()
	return d.opts.Transform(rec)
}

// Report summarises a run.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Tables   []TableResult
}

// TableResult is the outcome of one table.
type TableResult struct {
	Table       string
	Source      string
	Destination string
	RowsRead    int
	RowsWritten int
	Duration    time.Duration
	Err         error
}

// Failed returns the results of tables that did not complete.
func (r *Report) Failed() []TableResult {
	var out []TableResult
	for _, t := range r.Tables {
		if t.Err != nil {
			out = append(out, t)
		}
	}
	return out
}

// RowsWritten totals the rows written across tables.
func (r *Report) RowsWritten() int {
	n := 0
	for _, t := range r.Tables {
		n += t.RowsWritten
	}
	return n
}

// Err joins every table error, or returns nil when all tables succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, t := range r.Tables {
		if t.Err != nil {
			errs = append(errs, t.Err)
		}
	}
	return errors.Join(errs...)
}
