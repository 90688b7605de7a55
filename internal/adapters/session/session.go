// Package session persists per-user conversation state for the
// multi-step correction flow. State lives outside process memory so
// handlers stay stateless across restarts and replicas.
package session

import (
	"context"
	"time"
)

// Field identifies the submission column a pending correction targets.
type Field string

const (
	FieldScore   Field = "score"
	FieldSong    Field = "song_name"
	FieldArtist  Field = "artist_name"
	FieldComment Field = "comment"
)

// DefaultTTL bounds how long an unanswered correction prompt stays
// active before the conversation falls back to normal handling.
const DefaultTTL = 10 * time.Minute

// Store tracks which field, if any, a user is currently correcting.
type Store interface {
	// SetAwaitingField marks the user as mid-correction on a field.
	SetAwaitingField(ctx context.Context, userID string, f Field) error

	// AwaitingField returns the pending field for a user. The boolean
	// is false when no correction is in progress.
	AwaitingField(ctx context.Context, userID string) (Field, bool, error)

	// ClearAwaitingField ends the user's correction flow.
	ClearAwaitingField(ctx context.Context, userID string) error
}
