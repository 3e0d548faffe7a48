package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
)

// SaveUserGroup inserts or updates a user's group preference.
func (db *DB) SaveUserGroup(ctx context.Context, userID, group string) error {
	if strings.TrimSpace(userID) == "" {
		return domerrors.NewValidationError("user_id", "must not be empty")
	}
	query := `
		INSERT INTO users (id, group_name, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			group_name = excluded.group_name,
			updated_at = excluded.updated_at
	`
	start := time.Now()
	if _, err := db.writer.ExecContext(ctx, query, userID, group, time.Now().Unix()); err != nil {
		slog.ErrorContext(ctx, "failed to save user group",
			"user_id", userID,
			"error", err)
		return fmt.Errorf("failed to save user group: %w", err)
	}
	warnSlow(ctx, "SaveUserGroup", start, 100*time.Millisecond, "user_id", userID)
	return nil
}

// GetUserGroup returns the saved preference, or ErrNotFound.
func (db *DB) GetUserGroup(ctx context.Context, userID string) (*UserGroup, error) {
	query := `SELECT id, group_name, updated_at FROM users WHERE id = ?`

	var u UserGroup
	err := db.reader.QueryRowContext(ctx, query, userID).Scan(&u.UserID, &u.Group, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", userID, domerrors.ErrNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query user",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// DeleteUser removes a user's preference. Deleting an unknown user is not
// an error.
func (db *DB) DeleteUser(ctx context.Context, userID string) error {
	if _, err := db.writer.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CountUsers returns the number of users with a saved group.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := db.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// SaveFeedback stores a feedback message and returns its ID. An empty
// sentiment is stored as unknown.
func (db *DB) SaveFeedback(ctx context.Context, fb *Feedback) (int64, error) {
	if strings.TrimSpace(fb.Text) == "" {
		return 0, domerrors.NewValidationError("text", "must not be empty")
	}
	sentiment := fb.Sentiment
	if sentiment == "" {
		sentiment = SentimentUnknown
	}
	createdAt := fb.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	query := `
		INSERT INTO feedback (user_id, text, sentiment, provider, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	start := time.Now()
	res, err := db.writer.ExecContext(ctx, query, fb.UserID, fb.Text, sentiment, nullString(fb.Provider), createdAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save feedback",
			"user_id", fb.UserID,
			"error", err)
		return 0, fmt.Errorf("failed to save feedback: %w", err)
	}
	warnSlow(ctx, "SaveFeedback", start, 100*time.Millisecond)

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("feedback id: %w", err)
	}
	fb.ID, fb.Sentiment, fb.CreatedAt = id, sentiment, createdAt
	return id, nil
}

// RecentFeedback returns up to limit messages, newest first.
func (db *DB) RecentFeedback(ctx context.Context, limit int) ([]Feedback, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, text, sentiment, provider, created_at
		FROM feedback
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := db.reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	return scanFeedback(rows)
}

// SearchFeedback returns messages containing term, newest first.
func (db *DB) SearchFeedback(ctx context.Context, term string) ([]Feedback, error) {
	if len(term) > 100 {
		return nil, domerrors.NewValidationError("term", "too long")
	}
	query := `
		SELECT id, user_id, text, sentiment, provider, created_at
		FROM feedback
		WHERE text LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, id DESC
		LIMIT 500
	`
	rows, err := db.reader.QueryContext(ctx, query, "%"+sanitizeSearchTerm(term)+"%")
	if err != nil {
		return nil, fmt.Errorf("search feedback: %w", err)
	}
	return scanFeedback(rows)
}

// CountFeedbackBySentiment returns message counts per sentiment label.
func (db *DB) CountFeedbackBySentiment(ctx context.Context) (map[string]int, error) {
	rows, err := db.reader.QueryContext(ctx, `SELECT sentiment, COUNT(*) FROM feedback GROUP BY sentiment`)
	if err != nil {
		return nil, fmt.Errorf("count feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan feedback count: %w", err)
		}
		counts[label] = n
	}
	return counts, rows.Err()
}

func scanFeedback(rows *sql.Rows) ([]Feedback, error) {
	defer func() { _ = rows.Close() }()

	var out []Feedback
	for rows.Next() {
		var fb Feedback
		var provider sql.NullString
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.Text, &fb.Sentiment, &provider, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		fb.Provider = provider.String
		out = append(out, fb)
	}
	return out, rows.Err()
}

// SaveDirectory replaces the cached directory snapshot.
func (db *DB) SaveDirectory(ctx context.Context, blob []byte, loadedAt time.Time) error {
	query := `
		INSERT INTO directory_cache (id, blob, loaded_at, saved_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			blob = excluded.blob,
			loaded_at = excluded.loaded_at,
			saved_at = excluded.saved_at
	`
	start := time.Now()
	if _, err := db.writer.ExecContext(ctx, query, blob, loadedAt.Unix(), time.Now().Unix()); err != nil {
		return fmt.Errorf("save directory: %w", err)
	}
	warnSlow(ctx, "SaveDirectory", start, 500*time.Millisecond, "bytes", len(blob))
	return nil
}

// LoadDirectory returns the cached snapshot blob, or ErrNotFound.
func (db *DB) LoadDirectory(ctx context.Context) ([]byte, error) {
	var blob []byte
	err := db.reader.QueryRowContext(ctx, `SELECT blob FROM directory_cache WHERE id = 1`).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("directory cache: %w", domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}
	return blob, nil
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// sanitizeSearchTerm escapes LIKE wildcards so term matches literally
// under ESCAPE '\'.
func sanitizeSearchTerm(term string) string {
	return likeEscaper.Replace(term)
}
