// Package storage provides the SQLite storage layer for the CONTROL_LOG
// mirror.
//
// The in-process audit log is the source of truth; every appended record is
// mirrored here so it can be exported with SQL tooling and reloaded on
// restart when the DSN points at a file.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// DefaultDSN is a process-local in-memory database.
const DefaultDSN = "file:hospitalops?mode=memory&cache=shared"

// DB wraps a single-connection SQLite handle.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens the database at dsn, applies connection pragmas and verifies
// the connection.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	// One connection keeps an in-memory database alive for the process and
	// serializes writers.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("storage: set pragma %q: %w", stmt, err)
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}

	return &DB{db: sqlDB, logger: logger}, nil
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

// Close closes the database.
func (db *DB) Close() error {
	return db.db.Close()
}
