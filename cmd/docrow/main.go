// Command docrow converts document-database exports into relational rows.
//
// It reads each configured table (a CSV export or a live MongoDB
// collection), rebuilds the arrays and objects the export flattened,
// normalizes identifiers, and writes the result as CSV or into a SQL
// database. Configuration comes from the environment and an optional .env
// file; see internal/config for the variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/docrow/internal/config"
	"github.com/JonMunkholm/docrow/internal/driver"
	"github.com/JonMunkholm/docrow/internal/logging"

	// Register sources and destinations
	_ "github.com/JonMunkholm/docrow/internal/sink/csvfile"
	_ "github.com/JonMunkholm/docrow/internal/sink/postgres"
	_ "github.com/JonMunkholm/docrow/internal/sink/sqldb"
	_ "github.com/JonMunkholm/docrow/internal/source/csvfile"
	_ "github.com/JonMunkholm/docrow/internal/source/mongo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// options holds the command-line flags.
type options struct {
	envFile  string
	tables   []string
	dryRun   bool
	validate bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	var tables string

	fs := flag.NewFlagSet("docrow", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.envFile, "env", "", "path to a .env file (default: ./.env if present)")
	fs.StringVar(&tables, "tables", "", "comma-separated tables to convert, overriding TABLES and PLAN_FILE")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "transform tables without writing them")
	fs.BoolVar(&opts.validate, "validate", false, "validate configuration and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	opts.tables = config.SplitList(tables)
	return opts, nil
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	// Overload overwrites existing env vars so the file wins over the shell
	if opts.envFile != "" {
		if err := godotenv.Overload(opts.envFile); err != nil {
			fmt.Fprintf(stderr, "load %s: %v\n", opts.envFile, err)
			return 1
		}
	} else if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	if opts.dryRun {
		cfg.Run.DryRun = true
	}

	logging.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	jobs, err := cfg.Jobs(opts.tables)
	if err != nil {
		slog.Error("failed to resolve tables", "error", err)
		return 1
	}

	if opts.validate {
		for _, j := range jobs {
			slog.Info("table", "name", j.Table, "source", j.Source, "destination", j.Destination)
		}
		slog.Info("configuration valid",
			"source", cfg.Source.Kind,
			"destination", cfg.Destination.Kind,
			"tables", len(jobs),
		)
		return 0
	}

	source, err := driver.OpenSource(ctx, cfg)
	if err != nil {
		slog.Error("failed to open source", "kind", cfg.Source.Kind, "error", err)
		return 1
	}
	defer source.Close()

	var dest driver.Destination
	if !cfg.Run.DryRun {
		dest, err = driver.OpenDestination(ctx, cfg)
		if err != nil {
			slog.Error("failed to open destination", "kind", cfg.Destination.Kind, "error", err)
			return 1
		}
		defer dest.Close()
	}

	report := driver.New(source, dest, driver.Options{
		Workers:      cfg.Run.Workers,
		TableTimeout: cfg.Run.TableTimeout,
		DryRun:       cfg.Run.DryRun,
	}).Run(ctx, jobs)

	if report.Err() != nil {
		fmt.Fprintf(stderr, "%d of %d tables failed\n", len(report.Failed()), len(report.Tables))
		for _, res := range report.Failed() {
			fmt.Fprintf(stderr, "  %s: %s\n", res.Table, driver.FormatError(res.Err))
		}
		return 1
	}
	return 0
}
