// Package postgres loads converted tables into PostgreSQL.
//
// Every field becomes a text column. A table is created on first load and
// gains columns as new fields appear; rows are streamed in with COPY inside
// one transaction, so a failed load leaves the previous contents in place.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/docrow/internal/config"
	"github.com/JonMunkholm/docrow/internal/core"
	"github.com/JonMunkholm/docrow/internal/driver"
	"github.com/JonMunkholm/docrow/internal/logging"
	"github.com/JonMunkholm/docrow/internal/tabular"
)

func init() {
	driver.RegisterDestination(config.DestinationPostgres, func(ctx context.Context, cfg *config.Config) (driver.Destination, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
		return Connect(ctx, cfg.Database.URL, Options{
			MaxConns: cfg.Database.MaxConns,
			Replace:  cfg.Destination.Replace,
		})
	})
}

// Options tunes a Destination.
type Options struct {
	// MaxConns bounds the connection pool.
	MaxConns int

	// Replace deletes existing rows before loading.
	Replace bool
}

// Destination writes tables through a pgx pool.
type Destination struct {
	pool *pgxpool.Pool
	opts Options
}

// Connect creates the pool and verifies the database is reachable.
func Connect(ctx context.Context, dsn string, opts Options) (*Destination, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logging.FromContext(ctx).Debug("postgres connected", "database", poolConfig.ConnConfig.Database)
	return &Destination{pool: pool, opts: opts}, nil
}

// Write loads rows into table, creating or widening it as needed.
func (d *Destination) Write(ctx context.Context, table string, rows []core.Record) error {
	columns := tabular.Header(rows)
	ident := tableIdent(table)

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	existing, err := existingColumns(ctx, tx, ident)
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		if len(columns) == 0 {
			return tx.Commit(ctx)
		}
		if _, err := tx.Exec(ctx, createTableSQL(ident, columns)); err != nil {
			return fmt.Errorf("create table %s: %w", ident.Sanitize(), err)
		}
	} else {
		for _, col := range tabular.MissingColumns(existing, columns, false) {
			if _, err := tx.Exec(ctx, addColumnSQL(ident, col)); err != nil {
				return fmt.Errorf("add column %s to %s: %w", col, ident.Sanitize(), err)
			}
		}
		if d.opts.Replace {
			if _, err := tx.Exec(ctx, "DELETE FROM "+ident.Sanitize()); err != nil {
				return fmt.Errorf("clear %s: %w", ident.Sanitize(), err)
			}
		}
	}

	if len(rows) > 0 {
		n, err := tx.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rowValues(columns, rows)))
		if err != nil {
			return fmt.Errorf("copy into %s: %w", ident.Sanitize(), err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy into %s: wrote %d of %d rows", ident.Sanitize(), n, len(rows))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the pool.
func (d *Destination) Close() error {
	d.pool.Close()
	return nil
}

// existingColumns lists the table's columns in ordinal order; an absent
// table has none.
func existingColumns(ctx context.Context, tx pgx.Tx, ident pgx.Identifier) ([]string, error) {
	schema, name := splitIdent(ident)

	rows, err := tx.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
		  AND table_name = $2
		ORDER BY ordinal_position`, schema, name)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", ident.Sanitize(), err)
	}

	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", ident.Sanitize(), err)
	}
	return cols, nil
}

// tableIdent splits an optionally schema-qualified table name.
func tableIdent(table string) pgx.Identifier {
	if schema, name, ok := strings.Cut(table, "."); ok && schema != "" && name != "" {
		return pgx.Identifier{schema, name}
	}
	return pgx.Identifier{table}
}

func splitIdent(ident pgx.Identifier) (schema, name string) {
	if len(ident) == 2 {
		return ident[0], ident[1]
	}
	return "", ident[0]
}

func createTableSQL(ident pgx.Identifier, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " text"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident.Sanitize(), strings.Join(defs, ", "))
}

func addColumnSQL(ident pgx.Identifier, column string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s text", ident.Sanitize(), pgx.Identifier{column}.Sanitize())
}

// rowValues lays records out along columns for COPY.
func rowValues(columns []string, rows []core.Record) [][]any {
	out := make([][]any, len(rows))
	for i, rec := range rows {
		cells := tabular.Cells(columns, rec)
		vals := make([]any, len(cells))
		for j, c := range cells {
			vals[j] = c
		}
		out[i] = vals
	}
	return out
}
