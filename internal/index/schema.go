// Package index provides SQLite-backed persistence of scanned
// marginalia items with optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
	document  TEXT NOT NULL,
	line      INTEGER NOT NULL,
	ord       INTEGER NOT NULL DEFAULT 0,
	text      TEXT NOT NULL DEFAULT '',
	raw_text  TEXT NOT NULL DEFAULT '',
	color     TEXT NOT NULL DEFAULT '',
	block_id  TEXT NOT NULL DEFAULT '',
	flashcard INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (document, line, ord)
);

CREATE TABLE IF NOT EXISTS threads (
	source_document TEXT NOT NULL,
	source_line     INTEGER NOT NULL,
	source_ord      INTEGER NOT NULL DEFAULT 0,
	target          TEXT NOT NULL,
	UNIQUE(source_document, source_line, source_ord, target)
);

CREATE INDEX IF NOT EXISTS idx_items_block ON items(block_id);
CREATE INDEX IF NOT EXISTS idx_threads_source ON threads(source_document);
CREATE INDEX IF NOT EXISTS idx_threads_target ON threads(target);
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
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
