package sqldb

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the database/sql targets.
type Dialect struct {
	// Name is the DEST_KIND this dialect serves.
	Name string

	// DriverName is the database/sql driver to open.
	DriverName string

	// MaxParams bounds bind parameters per statement.
	MaxParams int

	// MaxRows bounds rows per INSERT statement; zero means no limit.
	MaxRows int

	// SingleConn serializes all access through one connection.
	SingleConn bool

	quote        func(string) string
	placeholder  func(n int) string
	columnType   string
	columnsQuery string
	quotedLookup bool
	createTable  func(table string, defs []string) string
	addColumn    func(table, def string) string
}

// SQLite is the modernc.org/sqlite dialect.
var SQLite = &Dialect{
	Name:       "sqlite",
	DriverName: "sqlite",
	MaxParams:  32766,
	SingleConn: true,

	quote:        quoteDouble,
	placeholder:  func(int) string { return "?" },
	columnType:   "TEXT",
	columnsQuery: `SELECT name FROM pragma_table_info(?) ORDER BY cid`,
	createTable: func(table string, defs []string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
	},
	addColumn: func(table, def string) string {
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, def)
	},
}

// MSSQL is the github.com/microsoft/go-mssqldb dialect.
var MSSQL = &Dialect{
	Name:       "mssql",
	DriverName: "sqlserver",
	MaxParams:  2100,
	MaxRows:    1000,

	quote:        quoteBracket,
	placeholder:  func(n int) string { return "@p" + strconv.Itoa(n) },
	columnType:   "NVARCHAR(MAX) NULL",
	columnsQuery: `SELECT name FROM sys.columns WHERE object_id = OBJECT_ID(@p1) ORDER BY column_id`,
	quotedLookup: true,
	createTable: func(table string, defs []string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL BEGIN CREATE TABLE %s (%s) END;",
			strings.ReplaceAll(table, "'", "''"), table, strings.Join(defs, ", "))
	},
	addColumn: func(table, def string) string {
		return fmt.Sprintf("ALTER TABLE %s ADD %s", table, def)
	},
}

func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteBracket(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// QuoteTable quotes a table name, keeping a schema prefix separate.
func (d *Dialect) QuoteTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok && schema != "" && name != "" {
		return d.quote(schema) + "." + d.quote(name)
	}
	return d.quote(table)
}

// lookupArg is the table argument bound into columnsQuery.
func (d *Dialect) lookupArg(table string) string {
	if d.quotedLookup {
		return d.QuoteTable(table)
	}
	return table
}

// CreateTableSQL creates table with one text column per name.
func (d *Dialect) CreateTableSQL(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = d.quote(c) + " " + d.columnType
	}
	return d.createTable(d.QuoteTable(table), defs)
}

// AddColumnSQL adds one text column.
func (d *Dialect) AddColumnSQL(table, column string) string {
	return d.addColumn(d.QuoteTable(table), d.quote(column)+" "+d.columnType)
}

// DeleteSQL removes every row from table.
func (d *Dialect) DeleteSQL(table string) string {
	return "DELETE FROM " + d.QuoteTable(table)
}

// BatchRows returns how many rows of width columns fit in one INSERT.
func (d *Dialect) BatchRows(columns, want int) int {
	n := want
	if columns > 0 && d.MaxParams/columns < n {
		n = d.MaxParams / columns
	}
	if d.MaxRows > 0 && d.MaxRows < n {
		n = d.MaxRows
	}
	if n < 1 {
		n = 1
	}
	return n
}

// InsertSQL builds a multi-row INSERT for rows rows of columns.
func (d *Dialect) InsertSQL(table string, columns []string, rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteTable(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.quote(c))
	}
	b.WriteString(") VALUES ")

	p := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.placeholder(p))
			p++
		}
		b.WriteString(")")
	}
	return b.String()
}
