package chat

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SessionStore holds the live sessions keyed by user identity. It is an
// explicit seam so a TTL-evicting or persistent backend can replace the
// in-memory map without touching the manager.
type SessionStore interface {
	// Peek returns the cached session for a user, if any.
	Peek(userID int64) (*Session, bool)

	// GetOrCreate returns the cached session or runs init to build one.
	// Concurrent callers for the same user share a single init; a failed
	// init caches nothing, so the next call retries from scratch.
	GetOrCreate(ctx context.Context, userID int64, init func(ctx context.Context) (*Session, error)) (*Session, error)

	// Evict drops the session for a user.
	Evict(userID int64)
}

// MemoryStore is the process-lifetime SessionStore: empty at start, grows
// with distinct active users, shrinks only through Evict.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	initGrp  singleflight.Group
}

// Ensure MemoryStore implements SessionStore.
var _ SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

// Peek returns the cached session for a user, if any.
func (m *MemoryStore) Peek(userID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	return sess, ok
}

// GetOrCreate returns the cached session or initializes exactly one.
func (m *MemoryStore) GetOrCreate(ctx context.Context, userID int64, init func(ctx context.Context) (*Session, error)) (*Session, error) {
	if sess, ok := m.Peek(userID); ok {
		return sess, nil
	}

	key := strconv.FormatInt(userID, 10)
	v, err, _ := m.initGrp.Do(key, func() (any, error) {
		// A racing caller may have finished initialization already.
		if sess, ok := m.Peek(userID); ok {
			return sess, nil
		}
		sess, err := init(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.sessions[userID] = sess
		m.mu.Unlock()
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Evict drops the session for a user.
func (m *MemoryStore) Evict(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
