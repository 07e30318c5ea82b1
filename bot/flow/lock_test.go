package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLock_AcquireRelease(t *testing.T) {
	locks := newUserLock()

	release, ok := locks.acquire(context.Background(), "u1", time.Second)
	require.True(t, ok)
	release()

	release, ok = locks.acquire(context.Background(), "u1", time.Second)
	require.True(t, ok)
	release()
}

func TestUserLock_BoundedWait(t *testing.T) {
	locks := newUserLock()

	release, ok := locks.acquire(context.Background(), "u1", time.Second)
	require.True(t, ok)

	_, ok = locks.acquire(context.Background(), "u1", 20*time.Millisecond)
	assert.False(t, ok, "held lock must not be acquired within the wait budget")

	release()

	release2, ok := locks.acquire(context.Background(), "u1", time.Second)
	require.True(t, ok, "released lock must be acquirable again")
	release2()
}

func TestUserLock_IndependentUsers(t *testing.T) {
	locks := newUserLock()

	r1, ok := locks.acquire(context.Background(), "u1", time.Second)
	require.True(t, ok)

	r2, ok := locks.acquire(context.Background(), "u2", 20*time.Millisecond)
	require.True(t, ok, "another user's lock must not block")

	r1()
	r2()
}

func TestUserLock_ContextCancel(t *testing.T) {
	locks := newUserLock()

	release, ok := locks.acquire(context.Background(), "u1", time.Second)
	require.True(t, ok)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, ok = locks.acquire(ctx, "u1", 5*time.Second)
	assert.False(t, ok)
}

func TestUserLock_EntriesGarbageCollected(t *testing.T) {
	locks := newUserLock()

	release, ok := locks.acquire(context.Background(), "u1", time.Second)
	require.True(t, ok)
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.entries)
}
