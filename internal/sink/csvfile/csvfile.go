// Package csvfile writes converted tables as CSV files.
package csvfile

import (
	"context"

	"github.com/JonMunkholm/docrow/internal/config"
	"github.com/JonMunkholm/docrow/internal/core"
	"github.com/JonMunkholm/docrow/internal/driver"
	"github.com/JonMunkholm/docrow/internal/tabular"
)

func init() {
	driver.RegisterDestination(config.DestinationCSV, func(ctx context.Context, cfg *config.Config) (driver.Destination, error) {
		return New(), nil
	})
}

// Destination writes each table to the file named by its locator.
type Destination struct{}

// New creates a CSV destination.
func New() *Destination {
	return &Destination{}
}

// Write replaces the file at path with rows. The header is the union of the
// rows' field names; the file is swapped in atomically.
func (d *Destination) Write(ctx context.Context, path string, rows []core.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return tabular.WriteFile(path, rows)
}

// Close is a no-op.
func (d *Destination) Close() error {
	return nil
}
