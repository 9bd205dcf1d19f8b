package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"versio/src/features/versioning"
)

// timeLayout is fixed-width (nine fractional digits, always UTC) so that
// lexical order on the stored text matches chronological order; RFC3339Nano
// trims trailing zeros and would break newest-first queries within a second.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SqliteCatalog is a SQLite implementation of the versioning.Catalog
// interface.
type SqliteCatalog struct {
	db *sql.DB
}

// NewSqliteCatalog opens (or creates) the catalog database at path.
func NewSqliteCatalog(path string) (*SqliteCatalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SqliteCatalog{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS versions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			path TEXT NOT NULL UNIQUE,
			token TEXT NOT NULL,
			size INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_versions_source ON versions(source, token);
	`)
	if err != nil {
		return fmt.Errorf("failed to create catalog tables: %w", err)
	}
	return nil
}

// Record stores one written version.
func (c *SqliteCatalog) Record(ctx context.Context, v versioning.Version) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO versions (id, source, path, token, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.Source, v.Path, v.Token, v.Size, v.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record version %q: %w", v.Path, err)
	}
	return nil
}

// Recent returns the newest versions across all sources, newest first.
func (c *SqliteCatalog) Recent(ctx context.Context, limit int) ([]versioning.Version, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, source, path, token, size, created_at
		FROM versions ORDER BY created_at DESC, token DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer rows.Close()
	return scanVersions(rows)
}

// BySource returns the versions of one source file, newest first.
func (c *SqliteCatalog) BySource(ctx context.Context, source string, limit int) ([]versioning.Version, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, source, path, token, size, created_at
		FROM versions WHERE source = ? ORDER BY token DESC LIMIT ?`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions for %q: %w", source, err)
	}
	defer rows.Close()
	return scanVersions(rows)
}

// Close closes the underlying database.
func (c *SqliteCatalog) Close() error {
	return c.db.Close()
}

func scanVersions(rows *sql.Rows) ([]versioning.Version, error) {
	var versions []versioning.Version
	for rows.Next() {
		var v versioning.Version
		var createdAt string
		if err := rows.Scan(&v.ID, &v.Source, &v.Path, &v.Token, &v.Size, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan version row: %w", err)
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse version timestamp %q: %w", createdAt, err)
		}
		v.CreatedAt = parsed
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
