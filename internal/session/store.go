package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a user has no persisted session.
var ErrNotFound = errors.New("session not found")

// DefaultLockTTL is the lock self-expiry backstop.
const DefaultLockTTL = 600 * time.Second

// Store persists one session record per user.
type Store interface {
	// Get retrieves the user's session. Returns ErrNotFound when absent.
	Get(ctx context.Context, userID int64) (*Session, error)

	// Put saves the session, overwriting any previous record.
	Put(ctx context.Context, s *Session) error

	// Delete removes the session. Deleting an absent record is not an
	// error: reset must be idempotent.
	Delete(ctx context.Context, userID int64) error
}

// Locker is the per-user exclusivity primitive. While a lock is held no
// second dispatch for the same user may run.
type Locker interface {
	// Acquire takes the user's lock. Returns false without blocking when
	// the lock is already held.
	Acquire(ctx context.Context, userID int64) (bool, error)

	// Release clears the lock unconditionally. Also used to force-clear a
	// stale lock on an explicit reset.
	Release(ctx context.Context, userID int64) error
}
