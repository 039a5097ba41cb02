package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type DB struct {
	conn *sql.DB
}

// Open opens the history database in configDir and initializes the schema
func Open(configDir string) (*DB, error) {
	return OpenPath(filepath.Join(configDir, "history.db"))
}

// OpenPath opens the database file at dbPath
func OpenPath(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The poll loop and key handler write from different goroutines
	conn.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the database schema
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,

		action TEXT NOT NULL,
		context TEXT NOT NULL,
		device TEXT NOT NULL,
		observed_state INTEGER NOT NULL,

		-- Outcome
		issued BOOLEAN NOT NULL,
		resynced BOOLEAN NOT NULL,
		new_state INTEGER NOT NULL,
		latency_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_actions_timestamp ON actions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_actions_action ON actions(action);

	CREATE TABLE IF NOT EXISTS status_changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,

		zoom_open BOOLEAN NOT NULL,
		muted BOOLEAN NOT NULL,
		video BOOLEAN NOT NULL,
		share BOOLEAN NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_status_changes_timestamp ON status_changes(timestamp);
	`

	_, err := db.conn.Exec(schema)
	return err
}
