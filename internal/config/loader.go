package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value, ok := lookupEnv(envName, field.Tag.Get("envAlt"))
		if !ok {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// lookupEnv returns the first non-empty value of the primary or alternate
// variable.
func lookupEnv(name, alt string) (string, bool) {
	if v := os.Getenv(name); v != "" {
		return v, true
	}
	if alt != "" {
		if v := os.Getenv(alt); v != "" {
			return v, true
		}
	}
	return "", false
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		field.Set(reflect.ValueOf(SplitList(value)))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// SplitList splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	switch c.Source.Kind {
	case SourceCSV:
		if c.Source.Dir == "" && c.Run.PlanFile == "" {
			errs = append(errs, "SOURCE_DIR is required for csv sources")
		}
	case SourceMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, "MONGO_URI is required when SOURCE_KIND=mongo")
		}
		if c.Mongo.BatchSize <= 0 {
			errs = append(errs, "MONGO_BATCH_SIZE must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("SOURCE_KIND (%q) must be one of: csv, mongo", c.Source.Kind))
	}
	if c.Source.Pattern == "" {
		errs = append(errs, "SOURCE_PATTERN must not be empty")
	}

	switch c.Destination.Kind {
	case DestinationCSV:
		if c.Destination.Pattern == "" {
			errs = append(errs, "DEST_PATTERN must not be empty")
		}
	case DestinationPostgres, DestinationSQLite, DestinationMSSQL:
		if c.Database.URL == "" {
			errs = append(errs, fmt.Sprintf("DATABASE_URL is required when DEST_KIND=%s", c.Destination.Kind))
		}
		if c.Destination.TablePattern == "" {
			errs = append(errs, "DEST_TABLE_PATTERN must not be empty")
		}
		if c.Destination.BatchSize <= 0 {
			errs = append(errs, "DEST_BATCH_SIZE must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("DEST_KIND (%q) must be one of: csv, postgres, sqlite, mssql", c.Destination.Kind))
	}

	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, "DB_CONNECT_TIMEOUT must be positive")
	}

	if c.Run.Workers <= 0 {
		errs = append(errs, "RUN_WORKERS must be positive")
	}
	if c.Run.TableTimeout <= 0 {
		errs = append(errs, "RUN_TABLE_TIMEOUT must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Connection strings are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Source: {Kind: %q, Dir: %q, Pattern: %q}, ",
		c.Source.Kind, c.Source.Dir, c.Source.Pattern))
	b.WriteString(fmt.Sprintf("Destination: {Kind: %q, Dir: %q, Pattern: %q}, ",
		c.Destination.Kind, c.Destination.Dir, c.Destination.Pattern))
	b.WriteString(fmt.Sprintf("Database: {URL: %s}, ", mask(c.Database.URL)))
	b.WriteString(fmt.Sprintf("Mongo: {URI: %s}, ", mask(c.Mongo.URI)))
	b.WriteString(fmt.Sprintf("Run: {Tables: %v, Workers: %d}, ", c.Run.Tables, c.Run.Workers))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return `""`
	}
	return "[MASKED]"
}
