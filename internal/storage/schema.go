package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createUsersTable(ctx, db); err != nil {
		return err
	}
	if err := createFeedbackTable(ctx, db); err != nil {
		return err
	}
	return createDirectoryCacheTable(ctx, db)
}

func createUsersTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		group_name TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_group ON users(group_name);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func createFeedbackTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		text TEXT NOT NULL,
		sentiment TEXT CHECK(sentiment IN ('positive', 'neutral', 'negative', 'unknown')) NOT NULL DEFAULT 'unknown',
		provider TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_user ON feedback(user_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_sentiment ON feedback(sentiment);
	CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create feedback table: %w", err)
	}
	return nil
}

// The directory cache holds a single row: the last good snapshot.
func createDirectoryCacheTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS directory_cache (
		id INTEGER PRIMARY KEY CHECK(id = 1),
		blob BLOB NOT NULL,
		loaded_at INTEGER NOT NULL,
		saved_at INTEGER NOT NULL
	);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create directory_cache table: %w", err)
	}
	return nil
}
