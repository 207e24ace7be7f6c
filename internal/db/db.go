package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with quotedesk-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS quotes (
    id TEXT PRIMARY KEY,
    timestamp DATETIME NOT NULL,
    service TEXT NOT NULL,
    pickup TEXT NOT NULL DEFAULT '',
    destination TEXT NOT NULL DEFAULT '',
    passengers TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL DEFAULT '',
    time TEXT NOT NULL DEFAULT '',
    return_type TEXT NOT NULL DEFAULT 'one-way' CHECK(return_type IN ('one-way','same-day','different-day')),
    quote_low INTEGER NOT NULL DEFAULT 0,
    quote_high INTEGER NOT NULL DEFAULT 0,
    quote_total INTEGER NOT NULL DEFAULT 0,
    source TEXT NOT NULL DEFAULT 'storefront' CHECK(source IN ('storefront','conversational','phone')),
    converted INTEGER NOT NULL DEFAULT 0,
    converted_at DATETIME,
    converted_value REAL,
    lost_reason TEXT,
    customer_name TEXT,
    notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_quotes_timestamp ON quotes(timestamp);
CREATE INDEX IF NOT EXISTS idx_quotes_service ON quotes(service);
CREATE INDEX IF NOT EXISTS idx_quotes_source ON quotes(source);
`
