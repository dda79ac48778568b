// Package store persists the inventory table and the restock log. Every
// adapter loads and saves whole tables; there are no partial writes and
// no concurrency checks, so the last save wins.
package store

import (
	"context"
	"fmt"

	"github.com/erazemk/stockroom/internal/model"
)

// Store is a tabular backing medium for the inventory and its restock log.
type Store interface {
	// Load returns the full table. An absent or empty medium yields an
	// empty table, not an error.
	Load(ctx context.Context) (model.Table, error)
	// Save replaces the medium's content with t.
	Save(ctx context.Context, t model.Table) error
	LoadLog(ctx context.Context) ([]model.RestockEntry, error)
	SaveLog(ctx context.Context, log []model.RestockEntry) error
	Close() error
}

// StoreError wraps an I/O or remote API failure. Remote is set when the
// failure came from a remote backend.
type StoreError struct {
	Op     string
	Err    error
	Remote bool
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func remoteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err, Remote: true}
}

// Backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
	BackendSheet  = "sheet"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Schema  model.Schema

	CSVPath string
	LogPath string

	DBPath string

	SheetURL   string
	SheetToken string
}

// Open returns the store described by opts.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendCSV, "":
		return NewCSVFile(opts.CSVPath, opts.LogPath, opts.Schema), nil
	case BackendSQLite:
		return OpenSQLite(opts.DBPath, opts.Schema)
	case BackendSheet:
		if opts.SheetURL == "" {
			return nil, fmt.Errorf("sheet backend requires a sheet URL")
		}
		return NewSheet(opts.SheetURL, opts.SheetToken, opts.Schema), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}
