package flow_test

import (
	"context"
	"testing"
	"time"

	"IzdatBot/bot/flow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetAbsent(t *testing.T) {
	store := flow.NewMemoryStore()

	_, err := store.Get(context.Background(), "u1")
	require.ErrorIs(t, err, flow.ErrSessionNotFound)
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := flow.NewMemoryStore()

	sess := flow.NewSession("u1", "contractor", "lookup")
	require.NoError(t, store.Put(ctx, sess, 0))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, flow.FlowID("contractor"), got.FlowName)
	assert.Equal(t, flow.StateID("lookup"), got.CurrentState)
	assert.Equal(t, int64(1), got.Version)

	// Creating again must conflict.
	require.ErrorIs(t, store.Put(ctx, flow.NewSession("u1", "contractor", "lookup"), 0),
		flow.ErrVersionConflict)
}

func TestMemoryStore_VersionedPut(t *testing.T) {
	ctx := context.Background()
	store := flow.NewMemoryStore()

	sess := flow.NewSession("u1", "contractor", "lookup")
	require.NoError(t, store.Put(ctx, sess, 0))

	sess.Version = 2
	sess.CurrentState = "waiting_type"
	require.NoError(t, store.Put(ctx, sess, 1))

	// A writer holding a stale version must be rejected.
	stale := sess.Clone()
	stale.Version = 2
	require.ErrorIs(t, store.Put(ctx, stale, 1), flow.ErrVersionConflict)

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, flow.StateID("waiting_type"), got.CurrentState)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := flow.NewMemoryStore()

	sess := flow.NewSession("u1", "contractor", "lookup")
	sess.Context["field"] = "phone"
	require.NoError(t, store.Put(ctx, sess, 0))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	got.Context["field"] = "mutated"

	again, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "phone", again.Context.GetString("field"))
}

func TestMemoryStore_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store := flow.NewMemoryStore()

	require.NoError(t, store.Put(ctx, flow.NewSession("u1", "contractor", "lookup"), 0))
	require.NoError(t, store.Delete(ctx, "u1"))
	require.NoError(t, store.Delete(ctx, "u1"))

	_, err := store.Get(ctx, "u1")
	require.ErrorIs(t, err, flow.ErrSessionNotFound)
}

func TestMemoryStore_ExpireOlderThan(t *testing.T) {
	ctx := context.Background()
	store := flow.NewMemoryStore()

	stale := flow.NewSession("old", "contractor", "lookup")
	stale.UpdatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Put(ctx, stale, 0))

	fresh := flow.NewSession("new", "contractor", "lookup")
	require.NoError(t, store.Put(ctx, fresh, 0))

	removed, err := store.ExpireOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, flow.ErrSessionNotFound)

	_, err = store.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestMemoryStore_ExpireSkipsAdvancedSession(t *testing.T) {
	ctx := context.Background()
	store := flow.NewMemoryStore()

	sess := flow.NewSession("u1", "contractor", "lookup")
	sess.UpdatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Put(ctx, sess, 0))

	// The session advances before the sweep cutoff is applied; the fresh
	// write carries a recent timestamp and must survive.
	sess.Version = 2
	sess.UpdatedAt = time.Now()
	require.NoError(t, store.Put(ctx, sess, 1))

	removed, err := store.ExpireOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}
