package session

import (
	"context"
	"sync"
	"time"
)

var (
	_ Store  = (*MemoryStore)(nil)
	_ Locker = (*MemoryStore)(nil)
)

// MemoryStore is an in-process implementation of Store and Locker, with
// the same semantics as the Redis backend including lock expiry. Suitable
// for tests and single-node development.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]time.Time
	lockTTL  time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(lockTTL time.Duration) *MemoryStore {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &MemoryStore{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]time.Time),
		lockTTL:  lockTTL,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *sess
	return &clone, nil
}

func (m *MemoryStore) Put(_ context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *sess
	m.sessions[sess.UserID] = &clone
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *MemoryStore) Acquire(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if expiry, held := m.locks[userID]; held && m.now().Before(expiry) {
		return false, nil
	}
	m.locks[userID] = m.now().Add(m.lockTTL)
	return true, nil
}

func (m *MemoryStore) Release(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, userID)
	return nil
}
