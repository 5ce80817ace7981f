// Package db opens the SQLite database that backs Forked's local state.
package db

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/forkedapp/forked/internal/utils"
)

// InMemory opens a transient database. Tests use it; everything else
// hands Open a real path.
const InMemory = ":memory:"

// WAL so control-plane reads don't block a running sync session's
// writes. synchronous=NORMAL is safe under WAL.
const defaultPragmas = `
PRAGMA journal_mode=WAL;
PRAGMA synchronous=NORMAL;
PRAGMA busy_timeout=5000;
PRAGMA foreign_keys=ON;
`

type options struct {
	pragmas      string
	maxOpenConns int
	maxIdleConns int
}

// Option adjusts how the database is opened.
type Option func(*options)

// WithPragmas replaces the default pragma block.
func WithPragmas(pragmas string) Option {
	return func(o *options) {
		o.pragmas = pragmas
	}
}

// WithMaxOpenConns caps the connection pool.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		o.maxOpenConns = n
	}
}

// WithMaxIdleConns caps the idle connections kept open.
func WithMaxIdleConns(n int) Option {
	return func(o *options) {
		o.maxIdleConns = n
	}
}

// Open connects to the SQLite database at path, creating the file and
// its parent directory when missing.
func Open(path string, opts ...Option) (*sqlx.DB, error) {
	o := &options{
		pragmas:      defaultPragmas,
		maxIdleConns: 2,
	}
	for _, opt := range opts {
		opt(o)
	}

	dsn := path
	if path != InMemory {
		if err := utils.EnsureParent(path); err != nil {
			return nil, fmt.Errorf("ensure db directory: %w", err)
		}
		// _txlock=immediate takes the write lock at BEGIN, so a busy
		// database fails fast instead of at the first write.
		dsn = fmt.Sprintf("file:%s?_txlock=immediate&mode=rwc", path)
	}

	slog.Debug("db open", "driver", driverID, "path", path)
	conn, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if o.maxOpenConns > 0 {
		conn.SetMaxOpenConns(o.maxOpenConns)
	}
	if o.maxIdleConns > 0 {
		conn.SetMaxIdleConns(o.maxIdleConns)
	}

	if _, err := conn.Exec(o.pragmas); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	return conn, nil
}
