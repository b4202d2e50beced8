// Package db persists validation run history in SQLite or PostgreSQL.
package db

import (
	"context"
	"embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/randalmurphal/skillcheck/internal/db/driver"
	checkerrors "github.com/randalmurphal/skillcheck/internal/errors"
)

//go:embed schema
var schemaFS embed.FS

const schemaType = "history"

// DB wraps a migrated history database.
type DB struct {
	driver driver.Driver
	dsn    string
}

// Open opens the history database named by dialect and dsn and applies any
// pending migrations. For SQLite file databases the parent directory is
// created. Every failure is reported as a HISTORY_UNAVAILABLE CheckError.
func Open(ctx context.Context, dialect, dsn string) (*DB, error) {
	d, err := driver.ParseDialect(dialect)
	if err != nil {
		return nil, checkerrors.ErrHistoryUnavailable(dialect).WithCause(err)
	}

	if d == driver.DialectSQLite && isFileDSN(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, checkerrors.ErrHistoryUnavailable(dialect).WithCause(err)
		}
	}

	drv, err := driver.New(d)
	if err != nil {
		return nil, checkerrors.ErrHistoryUnavailable(dialect).WithCause(err)
	}
	if err := drv.Open(dsn); err != nil {
		return nil, checkerrors.ErrHistoryUnavailable(dialect).WithCause(err)
	}
	if err := drv.Migrate(ctx, schemaFS, schemaType); err != nil {
		_ = drv.Close()
		return nil, checkerrors.ErrHistoryUnavailable(dialect).WithCause(err)
	}

	return &DB{driver: drv, dsn: dsn}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.driver.Close()
}

// DSN returns the data source the database was opened with.
func (d *DB) DSN() string {
	return d.dsn
}

// Dialect returns the database dialect.
func (d *DB) Dialect() driver.Dialect {
	return d.driver.Dialect()
}

func isFileDSN(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}
