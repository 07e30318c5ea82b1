package flow

import (
	"context"
	"sync"
	"time"
)

// lockEntry pairs a one-slot semaphore with a reference count so idle
// entries can be garbage collected.
type lockEntry struct {
	sem  chan struct{}
	refs int
}

// userLock serializes dispatches per user identity. Acquisition waits a
// bounded time; a caller that cannot get the lock receives ok=false and
// must answer "busy" instead of queueing forever.
type userLock struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

func newUserLock() *userLock {
	return &userLock{entries: make(map[string]*lockEntry)}
}

func (l *userLock) get(userID string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[userID]
	if !ok {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[userID] = entry
	}
	entry.refs++
	return entry
}

func (l *userLock) put(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[userID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.entries, userID)
	}
}

// acquire takes the per-user lock, waiting at most wait. On success the
// returned release function must be called exactly once.
func (l *userLock) acquire(ctx context.Context, userID string, wait time.Duration) (func(), bool) {
	entry := l.get(userID)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case entry.sem <- struct{}{}:
		return func() {
			<-entry.sem
			l.put(userID)
		}, true
	case <-timer.C:
	case <-ctx.Done():
	}

	l.put(userID)
	return nil, false
}
