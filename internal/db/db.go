package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string

	// fts is set when the SQLite build supports FTS5 and the search index exists.
	fts bool
}

// OpenDB opens a SQLite database with WAL mode and foreign keys enabled and
// makes sure the schema exists.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Pragmas below are per connection.
	conn.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	d := &DB{conn: conn, Path: path}
	if err := d.Migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS interactions (
	message_id    TEXT PRIMARY KEY,
	sender_id     TEXT NOT NULL,
	recipient_ids TEXT NOT NULL,
	datetime      TEXT NOT NULL,
	subject       TEXT NOT NULL DEFAULT '',
	body          TEXT NOT NULL DEFAULT '',
	topics        BLOB,
	imported_at   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	root_id    TEXT NOT NULL,
	reward     INTEGER NOT NULL,
	cost       REAL NOT NULL,
	budget     REAL NOT NULL,
	size       INTEGER NOT NULL,
	label      TEXT,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS event_nodes (
	event_id   TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	node_id    TEXT NOT NULL,
	parent_id  TEXT,
	message_id TEXT NOT NULL,
	edge_cost  REAL,
	PRIMARY KEY (event_id, node_id)
);
CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
`

const ftsSchema = `CREATE VIRTUAL TABLE IF NOT EXISTS interactions_fts USING fts5(message_id UNINDEXED, subject, body)`

// Migrate creates any missing tables. It is safe to run repeatedly. A SQLite
// build without FTS5 only loses text search.
func (d *DB) Migrate() error {
	if _, err := d.conn.Exec(schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	if _, err := d.conn.Exec(ftsSchema); err != nil {
		if strings.Contains(err.Error(), "no such module") {
			return nil
		}
		return fmt.Errorf("creating search index: %w", err)
	}
	d.fts = true
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}
