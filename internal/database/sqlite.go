package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // driver: sqlite
)

// NewSQLite opens the local sqlite file used by the offline CLI and makes sure
// its schema exists. An empty path opens a private in-memory database.
func NewSQLite(ctx context.Context, path string, log zerolog.Logger) (*sql.DB, error) {
	dsn := "file::memory:?_pragma=foreign_keys(1)"
	if path != "" {
		dsn = fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps an in-memory database alive across calls.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}

	log.Debug().
		Str("path", path).
		Msg("SQLite opened")

	return db, nil
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS sampling_configurations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  total_questions INTEGER NOT NULL,
  difficulty_distribution TEXT NOT NULL DEFAULT '{}',
  owner_distribution TEXT NOT NULL DEFAULT '{}',
  passing_score INTEGER NOT NULL DEFAULT 0,
  time_limit_minutes INTEGER,
  scope_kind TEXT NOT NULL DEFAULT '',
  scope_id TEXT NOT NULL DEFAULT '',
  version INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
`
