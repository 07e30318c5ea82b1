package redisstore_test

import (
	"context"
	"testing"
	"time"

	"IzdatBot/bot/flow"
	"IzdatBot/internal/redisstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *redisstore.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.New(client, 0)
}

func TestStore_GetAbsent(t *testing.T) {
	store := newStore(t)

	_, err := store.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, flow.ErrSessionNotFound)
}

func TestStore_CreateAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	sess := flow.NewSession("u1", "contractor_onboarding", "lookup")
	require.NoError(t, store.Put(ctx, sess, 0))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, flow.FlowID("contractor_onboarding"), got.FlowName)
	assert.Equal(t, flow.StateID("lookup"), got.CurrentState)
	assert.Equal(t, int64(1), got.Version)

	// a second create for the same user must conflict
	assert.ErrorIs(t, store.Put(ctx, flow.NewSession("u1", "x", "y"), 0), flow.ErrVersionConflict)
}

func TestStore_VersionedPut(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	sess := flow.NewSession("u1", "contractor_onboarding", "lookup")
	require.NoError(t, store.Put(ctx, sess, 0))

	next := sess.Clone()
	next.CurrentState = "waiting_type"
	next.Version = 2
	require.NoError(t, store.Put(ctx, next, 1))

	// a writer still holding version 1 must be rejected
	stale := sess.Clone()
	stale.CurrentState = "waiting_verification"
	stale.Version = 2
	assert.ErrorIs(t, store.Put(ctx, stale, 1), flow.ErrVersionConflict)

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, flow.StateID("waiting_type"), got.CurrentState)
	assert.Equal(t, int64(2), got.Version)
}

func TestStore_DeleteIdempotent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, flow.NewSession("u1", "f", "s"), 0))
	require.NoError(t, store.Delete(ctx, "u1"))
	require.NoError(t, store.Delete(ctx, "u1"))

	_, err := store.Get(ctx, "u1")
	assert.ErrorIs(t, err, flow.ErrSessionNotFound)
}

func TestStore_ExpireOlderThan(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	stale := flow.NewSession("old", "f", "s")
	stale.UpdatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Put(ctx, stale, 0))

	fresh := flow.NewSession("new", "f", "s")
	require.NoError(t, store.Put(ctx, fresh, 0))

	removed, err := store.ExpireOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, flow.ErrSessionNotFound)
	_, err = store.Get(ctx, "new")
	assert.NoError(t, err)
}
