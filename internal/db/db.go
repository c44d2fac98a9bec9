package db

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

const driverName = "sqlite"

// Connect opens the SQLite database at path. ":memory:" is accepted for tests.
func Connect(path string) (*sqlx.DB, error) {
	pool, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	// A single connection keeps an in-memory database alive across queries.
	pool.SetMaxOpenConns(1)
	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS player_stats (
	user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	games_played INTEGER NOT NULL DEFAULT 0,
	games_won INTEGER NOT NULL DEFAULT 0,
	total_score INTEGER NOT NULL DEFAULT 0,
	best_score INTEGER NOT NULL DEFAULT 0,
	last_played TIMESTAMP
);`

// Migrate enables foreign keys and creates the schema if needed.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	slog.InfoContext(ctx, "DB connection initialized and schema verified.")
	return nil
}
