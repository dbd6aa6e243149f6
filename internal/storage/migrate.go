package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"slices"
)

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

// RunMigrations applies the *.sql files of migrationsFS in name order. Each
// file runs in its own transaction together with its schema_migrations row,
// so a failed file leaves no partial schema behind and is retried on the
// next start.
func (db *DB) RunMigrations(ctx context.Context, migrationsFS fs.FS) error {
	if _, err := db.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("storage: create schema_migrations: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "*.sql")
	if err != nil {
		return fmt.Errorf("storage: list migrations: %w", err)
	}
	slices.Sort(files)

	for _, name := range files {
		done, err := db.migrationApplied(ctx, name)
		if err != nil {
			return err
		}
		if done {
			db.logger.Debug("mirror migration: already applied", "file", name)
			continue
		}

		script, err := fs.ReadFile(migrationsFS, name)
		if err != nil {
			return fmt.Errorf("storage: read migration %s: %w", name, err)
		}
		if err := db.applyMigration(ctx, name, string(script)); err != nil {
			return err
		}
		db.logger.Info("mirror migration: applied", "file", name)
	}
	return nil
}

func (db *DB) migrationApplied(ctx context.Context, name string) (bool, error) {
	var n int
	err := db.db.QueryRowContext(ctx,
		`SELECT count(*) FROM schema_migrations WHERE version = ?`, name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("storage: check migration %s: %w", name, err)
	}
	return n > 0, nil
}

func (db *DB) applyMigration(ctx context.Context, name, script string) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin migration %s: %w", name, err)
	}
	defer func(tx *sql.Tx) { _ = tx.Rollback() }(tx)

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("storage: execute migration %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES (?)`, name,
	); err != nil {
		return fmt.Errorf("storage: record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit migration %s: %w", name, err)
	}
	return nil
}
