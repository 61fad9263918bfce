package session

import "context"

// Store persists session state keyed by session id. The production
// implementation is Redis-backed; an in-memory implementation exists for
// tests and single-process development.
type Store interface {
	// SetUser binds a user to the session.
	SetUser(ctx context.Context, sid string, userID int64) error
	// User returns the user bound to the session, if any.
	User(ctx context.Context, sid string) (int64, bool, error)
	// Clear removes all state held for the session.
	Clear(ctx context.Context, sid string) error

	// AddFlash queues a one-time notice on the session.
	AddFlash(ctx context.Context, sid, message string) error
	// PopFlashes returns and removes all queued notices.
	PopFlashes(ctx context.Context, sid string) ([]string, error)
}
