// Package index provides the SQLite-backed history of assembled payloads and
// their scans.
package index

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS payloads (
	id              TEXT PRIMARY KEY,
	kind            TEXT NOT NULL,
	content         TEXT NOT NULL,
	app             TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL,
	scan_url        TEXT NOT NULL,
	object_path     TEXT NOT NULL DEFAULT '',
	scan_count      INTEGER NOT NULL DEFAULT 0,
	last_scanned_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_payloads_kind ON payloads(kind);
CREATE INDEX IF NOT EXISTS idx_payloads_created_at ON payloads(created_at);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
