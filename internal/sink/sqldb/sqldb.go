// Package sqldb loads converted tables into SQLite or SQL Server through
// database/sql.
//
// Like the postgres destination, every field becomes a text column, tables
// are created and widened on demand, and each table loads inside a single
// transaction. Rows go in as batched multi-row INSERT statements sized to
// the dialect's bind-parameter limit.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/docrow/internal/config"
	"github.com/JonMunkholm/docrow/internal/core"
	"github.com/JonMunkholm/docrow/internal/driver"
	"github.com/JonMunkholm/docrow/internal/logging"
	"github.com/JonMunkholm/docrow/internal/tabular"
)

func init() {
	for _, dialect := range []*Dialect{SQLite, MSSQL} {
		driver.RegisterDestination(dialect.Name, func(ctx context.Context, cfg *config.Config) (driver.Destination, error) {
			ctx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
			defer cancel()
			return Open(ctx, dialect, cfg.Database.URL, Options{
				MaxConns:  cfg.Database.MaxConns,
				BatchSize: cfg.Destination.BatchSize,
				Replace:   cfg.Destination.Replace,
			})
		})
	}
}

// Options tunes a Destination.
type Options struct {
	// MaxConns bounds open connections; ignored for single-connection dialects.
	MaxConns int

	// BatchSize is the preferred number of rows per INSERT.
	BatchSize int

	// Replace deletes existing rows before loading.
	Replace bool
}

// Destination writes tables through database/sql.
type Destination struct {
	db      *sql.DB
	dialect *Dialect
	opts    Options
}

// Open connects to dsn with the dialect's driver and pings it.
func Open(ctx context.Context, dialect *Dialect, dsn string, opts Options) (*Destination, error) {
	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}

	switch {
	case dialect.SingleConn:
		db.SetMaxOpenConns(1)
	case opts.MaxConns > 0:
		db.SetMaxOpenConns(opts.MaxConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}

	logging.FromContext(ctx).Debug("database connected", "dialect", dialect.Name)
	return &Destination{db: db, dialect: dialect, opts: opts}, nil
}

// Write loads rows into table, creating or widening it as needed.
func (d *Destination) Write(ctx context.Context, table string, rows []core.Record) error {
	columns := tabular.Header(rows)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if already committed

	existing, err := d.existingColumns(ctx, tx, table)
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		if len(columns) == 0 {
			return tx.Commit()
		}
		if _, err := tx.ExecContext(ctx, d.dialect.CreateTableSQL(table, columns)); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	} else {
		for _, col := range tabular.MissingColumns(existing, columns, true) {
			if _, err := tx.ExecContext(ctx, d.dialect.AddColumnSQL(table, col)); err != nil {
				return fmt.Errorf("add column %s to %s: %w", col, table, err)
			}
		}
		if d.opts.Replace {
			if _, err := tx.ExecContext(ctx, d.dialect.DeleteSQL(table)); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}

	if err := d.insert(ctx, tx, table, columns, rows); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// insert writes rows in batches, preparing each distinct batch size once.
func (d *Destination) insert(ctx context.Context, tx *sql.Tx, table string, columns []string, rows []core.Record) error {
	batch := d.dialect.BatchRows(len(columns), d.opts.BatchSize)
	stmts := make(map[int]*sql.Stmt)
	defer func() {
		for _, s := range stmts {
			s.Close()
		}
	}()

	args := make([]any, 0, batch*len(columns))
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))

		stmt, ok := stmts[end-start]
		if !ok {
			var err error
			stmt, err = tx.PrepareContext(ctx, d.dialect.InsertSQL(table, columns, end-start))
			if err != nil {
				return fmt.Errorf("prepare insert into %s: %w", table, err)
			}
			stmts[end-start] = stmt
		}

		args = args[:0]
		for _, rec := range rows[start:end] {
			for _, cell := range tabular.Cells(columns, rec) {
				args = append(args, cell)
			}
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert rows %d-%d into %s: %w", start+1, end, table, err)
		}
	}
	return nil
}

func (d *Destination) existingColumns(ctx context.Context, tx *sql.Tx, table string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, d.dialect.columnsQuery, d.dialect.lookupArg(table))
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("inspect %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	return cols, nil
}

// Close closes the database handle.
func (d *Destination) Close() error {
	return d.db.Close()
}
