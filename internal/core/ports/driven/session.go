package driven

import (
	"context"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

// SessionStore persists conversation history keyed by session ID.
//
// Stores enforce the retention policy themselves: a sliding window of
// at most maxMessages per session, and an idle TTL refreshed on every
// successful Append. Mutations for a single session ID are serialized;
// different sessions are fully independent.
type SessionStore interface {
	// Append adds a message to the session, creating the session if it
	// does not exist, trimming the oldest messages beyond the window,
	// and resetting the TTL countdown.
	Append(ctx context.Context, sessionID string, msg domain.Message) (*domain.Session, error)

	// History returns the session's messages oldest first. An absent
	// or expired session yields an empty slice, not an error.
	History(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Reset deletes the session. Deleting an absent session is a no-op.
	Reset(ctx context.Context, sessionID string) error

	// Close releases resources.
	Close() error
}
