package gate_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStoreReplaceSupersedesPrevious(t *testing.T) {
	ctx := context.Background()
	store := gate.NewMemorySessionStore()

	first := gate.NewSessionID()
	require.NoError(t, store.Replace(ctx, "user-1", first, time.Hour))

	ok, err := store.Validate(ctx, "user-1", first)
	require.NoError(t, err)
	assert.True(t, ok)

	// a second login takes over the session slot
	second := gate.NewSessionID()
	require.NoError(t, store.Replace(ctx, "user-1", second, time.Hour))

	ok, err = store.Validate(ctx, "user-1", first)
	require.NoError(t, err)
	assert.False(t, ok, "superseded session should stop validating")

	ok, err = store.Validate(ctx, "user-1", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemorySessionStoreInvalidate(t *testing.T) {
	ctx := context.Background()
	store := gate.NewMemorySessionStore()

	sid := gate.NewSessionID()
	require.NoError(t, store.Replace(ctx, "user-1", sid, time.Hour))

	t.Run("invalidating a different session id is a no-op", func(t *testing.T) {
		require.NoError(t, store.Invalidate(ctx, "user-1", "other-session"))
		ok, err := store.Validate(ctx, "user-1", sid)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("invalidating the active session revokes it", func(t *testing.T) {
		require.NoError(t, store.Invalidate(ctx, "user-1", sid))
		ok, err := store.Validate(ctx, "user-1", sid)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalidate is idempotent", func(t *testing.T) {
		require.NoError(t, store.Invalidate(ctx, "user-1", sid))
	})
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := gate.NewMemorySessionStore().WithClock(func() time.Time { return now })

	sid := gate.NewSessionID()
	require.NoError(t, store.Replace(ctx, "user-1", sid, time.Hour))

	ok, err := store.Validate(ctx, "user-1", sid)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Hour + time.Second)
	ok, err = store.Validate(ctx, "user-1", sid)
	require.NoError(t, err)
	assert.False(t, ok, "expired session should stop validating")
}

func TestMemorySessionStoreIsolatesIdentities(t *testing.T) {
	ctx := context.Background()
	store := gate.NewMemorySessionStore()

	sidA := gate.NewSessionID()
	sidB := gate.NewSessionID()
	require.NoError(t, store.Replace(ctx, "user-a", sidA, time.Hour))
	require.NoError(t, store.Replace(ctx, "user-b", sidB, time.Hour))

	ok, err := store.Validate(ctx, "user-a", sidB)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Validate(ctx, "user-b", sidB)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemorySessionStoreHonorsContext(t *testing.T) {
	store := gate.NewMemorySessionStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Validate(ctx, "user-1", "sid")
	assert.Error(t, err)

	err = store.Replace(ctx, "user-1", "sid", time.Hour)
	assert.Error(t, err)
}
