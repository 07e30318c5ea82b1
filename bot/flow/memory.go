package flow

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default in-process session store. Suitable for a
// single instance and for tests; production deployments plug in the Mongo
// or Redis implementation.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Get returns a copy of the user's session.
func (m *MemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Put writes the session if the stored version still matches expectedVersion.
func (m *MemoryStore) Put(_ context.Context, session *Session, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.sessions[session.UserID]
	if expectedVersion == 0 {
		if exists {
			return ErrVersionConflict
		}
	} else {
		if !exists || current.Version != expectedVersion {
			return ErrVersionConflict
		}
	}

	cp := session.Clone()
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now()
	}
	m.sessions[session.UserID] = cp
	return nil
}

// Delete removes the user's session. Deleting an absent session is not an
// error.
func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}

// ExpireOlderThan removes sessions idle for longer than age. The removal is
// guarded by the version observed during the scan.
func (m *MemoryStore) ExpireOlderThan(_ context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)

	m.mu.Lock()
	defer m.mu.Unlock()

	type stale struct {
		userID  string
		version int64
	}
	var candidates []stale
	for userID, sess := range m.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			candidates = append(candidates, stale{userID, sess.Version})
		}
	}

	removed := 0
	for _, c := range candidates {
		sess, ok := m.sessions[c.userID]
		if !ok || sess.Version != c.version {
			continue
		}
		delete(m.sessions, c.userID)
		removed++
	}
	return removed, nil
}

// Len reports the number of live sessions. Test helper.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
