// Package repository defines the persistent store interface and its
// gorm-backed implementation.
package repository

import (
	"context"
	"time"

	"github.com/kyoden/utagoe/internal/domain/model"
)

// Store provides read/write access to users, scores and artists.
type Store interface {
	// RecentScores returns up to limit most recent scores for a user,
	// newest first. Returns ErrInvalidLimit when limit < 1.
	RecentScores(ctx context.Context, userID string, limit int) ([]model.ScoreRecord, error)

	// AppendScore inserts a new score row and fills in rec.ID.
	AppendScore(ctx context.Context, rec *model.ScoreRecord) error

	// LatestScore returns the most recent score row for a user.
	// Returns ErrNotFound when the user has no scores.
	LatestScore(ctx context.Context, userID string) (model.ScoreRecord, error)

	// UpdateScore persists changes to an existing score row. Used by
	// the correction flow; rec.ID must be set.
	UpdateScore(ctx context.Context, rec *model.ScoreRecord) error

	// GetUser returns a user by chat platform ID.
	// Returns ErrNotFound for unknown users.
	GetUser(ctx context.Context, id string) (model.User, error)

	// UserByCode returns a user by their public user code.
	UserByCode(ctx context.Context, code string) (model.User, error)

	// UpsertUser inserts or updates a user row keyed by ID.
	UpsertUser(ctx context.Context, u *model.User) error

	// RecordSubmission bumps the user's submission counter and stamps
	// the time of their latest score.
	RecordSubmission(ctx context.Context, userID string, at time.Time) error

	// CountUsers returns the number of registered users.
	CountUsers(ctx context.Context) (int64, error)

	// ArtistByName returns an artist row by exact name.
	// Returns ErrNotFound when the artist is not registered.
	ArtistByName(ctx context.Context, name string) (model.Artist, error)

	// UpsertArtist inserts an artist or updates its lookup metadata,
	// keyed by name.
	UpsertArtist(ctx context.Context, a *model.Artist) error
}
