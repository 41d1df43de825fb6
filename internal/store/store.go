// Package store is the persistent version store: prompts and their ordered,
// immutable versions, backed by a single SQLite database under .pit/.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DBName is the database file name under the project state directory.
const DBName = "pit.db"

// Store provides prompt and version persistence.
type Store struct {
	db *sql.DB
}

// Open creates a new database connection and initializes the schema.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	// WAL mode allows readers alongside the single writer, busy timeout
	// covers overlapping CLI invocations.
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers well
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS prompts (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL UNIQUE,
		description        TEXT,
		current_version_id TEXT,
		created_at         INTEGER NOT NULL,
		updated_at         INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS versions (
		id                TEXT PRIMARY KEY,
		prompt_id         TEXT NOT NULL,
		version_number    INTEGER NOT NULL,
		content           TEXT NOT NULL,
		variables         TEXT NOT NULL DEFAULT '[]',
		semantic_diff     TEXT,
		message           TEXT NOT NULL,
		author            TEXT,
		tags              TEXT NOT NULL DEFAULT '[]',
		parent_version_id TEXT,
		created_at        INTEGER NOT NULL,

		avg_token_usage   INTEGER,
		avg_latency_ms    REAL,
		success_rate      REAL,
		avg_cost_per_1k   REAL,
		total_invocations INTEGER NOT NULL DEFAULT 0,

		UNIQUE (prompt_id, version_number),
		FOREIGN KEY (prompt_id) REFERENCES prompts(id)
	);

	CREATE INDEX IF NOT EXISTS idx_versions_prompt ON versions(prompt_id);
	CREATE INDEX IF NOT EXISTS idx_versions_number ON versions(prompt_id, version_number);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
