// Package storage persists user preferences, feedback and the last good
// directory snapshot in SQLite.
package storage

import (
	"context"
	"time"
)

// UserRepository stores per-user group preferences.
type UserRepository interface {
	SaveUserGroup(ctx context.Context, userID, group string) error
	GetUserGroup(ctx context.Context, userID string) (*UserGroup, error)
	DeleteUser(ctx context.Context, userID string) error
	CountUsers(ctx context.Context) (int, error)
}

// FeedbackRepository stores user feedback.
type FeedbackRepository interface {
	SaveFeedback(ctx context.Context, fb *Feedback) (int64, error)
	RecentFeedback(ctx context.Context, limit int) ([]Feedback, error)
	SearchFeedback(ctx context.Context, term string) ([]Feedback, error)
	CountFeedbackBySentiment(ctx context.Context) (map[string]int, error)
}

// DirectoryCache stores the serialized directory snapshot.
// *DB satisfies directory.Store through it.
type DirectoryCache interface {
	SaveDirectory(ctx context.Context, blob []byte, loadedAt time.Time) error
	LoadDirectory(ctx context.Context) ([]byte, error)
}

// Compile-time checks
var (
	_ UserRepository     = (*DB)(nil)
	_ FeedbackRepository = (*DB)(nil)
	_ DirectoryCache     = (*DB)(nil)
)
