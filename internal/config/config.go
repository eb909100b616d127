// Package config provides centralized configuration management for the converter.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strings"
	"time"
)

// DefaultTables is the table list converted when neither TABLES nor a plan
// file names any.
var DefaultTables = []string{"Attachment", "Rote", "User", "UserOpenKey", "UserSwSubScription"}

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Source      SourceConfig
	Destination DestinationConfig
	Database    DatabaseConfig
	Mongo       MongoConfig
	Run         RunConfig
	Logging     LoggingConfig
}

// SourceConfig describes where exported rows are read from.
type SourceConfig struct {
	// Kind selects the source: csv or mongo (default: csv)
	Kind string `env:"SOURCE_KIND" default:"csv"`

	// Dir is the directory holding exported CSV files (default: ./mongo)
	Dir string `env:"SOURCE_DIR" default:"./mongo"`

	// Pattern names a table's source file; {prefix} and {table} are substituted
	Pattern string `env:"SOURCE_PATTERN" default:"{prefix}.{table}.csv"`

	// Prefix is substituted for {prefix}, usually the exported database name (default: Rote)
	Prefix string `env:"SOURCE_PREFIX" default:"Rote"`

	// Encoding is the character encoding of source files (default: utf-8)
	Encoding string `env:"SOURCE_ENCODING" default:"utf-8"`

	// LazyQuotes tolerates stray quotes inside unquoted CSV fields (default: true)
	LazyQuotes bool `env:"SOURCE_LAZY_QUOTES" default:"true"`
}

// DestinationConfig describes where converted rows are written.
type DestinationConfig struct {
	// Kind selects the destination: csv, postgres, sqlite or mssql (default: csv)
	Kind string `env:"DEST_KIND" default:"csv"`

	// Dir is the directory converted CSV files are written to (default: ./mongo)
	Dir string `env:"DEST_DIR" default:"./mongo"`

	// Pattern names a table's converted file; {prefix} and {table} are substituted
	Pattern string `env:"DEST_PATTERN" default:"{prefix}.{table}.Modified.csv"`

	// TablePattern names the destination table for SQL destinations (default: {table})
	TablePattern string `env:"DEST_TABLE_PATTERN" default:"{table}"`

	// Replace deletes existing rows before loading into SQL destinations (default: true)
	Replace bool `env:"DEST_REPLACE" default:"true"`

	// BatchSize is the number of rows per INSERT statement for sqlite/mssql (default: 500)
	BatchSize int `env:"DEST_BATCH_SIZE" default:"500"`
}

// DatabaseConfig holds the relational destination connection settings.
type DatabaseConfig struct {
	// URL is the destination DSN, required for SQL destinations.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// ConnectTimeout bounds the initial connection and ping (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// MongoConfig holds settings for reading directly from MongoDB.
type MongoConfig struct {
	// URI is the MongoDB connection string, required when SOURCE_KIND=mongo
	URI string `env:"MONGO_URI"`

	// Database is the database to read from (default: SOURCE_PREFIX)
	Database string `env:"MONGO_DATABASE"`

	// BatchSize is the cursor batch size (default: 500)
	BatchSize int `env:"MONGO_BATCH_SIZE" default:"500"`
}

// RunConfig controls which tables are converted and how.
type RunConfig struct {
	// Tables is a comma-separated list of table names
	Tables []string `env:"TABLES"`

	// PlanFile is an optional YAML plan listing explicit source/destination pairs
	PlanFile string `env:"PLAN_FILE"`

	// Workers is the number of tables converted in parallel (default: 2)
	Workers int `env:"RUN_WORKERS" default:"2"`

	// TableTimeout bounds the conversion of a single table (default: 10m)
	TableTimeout time.Duration `env:"RUN_TABLE_TIMEOUT" default:"10m"`

	// DryRun transforms rows without writing anything (default: false)
	DryRun bool `env:"RUN_DRY_RUN" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Source kinds.
const (
	SourceCSV   = "csv"
	SourceMongo = "mongo"
)

// Destination kinds.
const (
	DestinationCSV      = "csv"
	DestinationPostgres = "postgres"
	DestinationSQLite   = "sqlite"
	DestinationMSSQL    = "mssql"
)

// IsSQL reports whether the destination kind writes to a relational database.
func (c *DestinationConfig) IsSQL() bool {
	switch c.Kind {
	case DestinationPostgres, DestinationSQLite, DestinationMSSQL:
		return true
	}
	return false
}

// MongoDatabase returns the configured database, falling back to the source prefix.
func (c *Config) MongoDatabase() string {
	if c.Mongo.Database != "" {
		return c.Mongo.Database
	}
	return c.Source.Prefix
}

// expand substitutes {prefix} and {table} in a naming pattern.
func expand(pattern, prefix, table string) string {
	r := strings.NewReplacer("{prefix}", prefix, "{table}", table)
	return r.Replace(pattern)
}
