package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV_SetGetDelete(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	got, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, kv.Set(ctx, "a", []byte("one"), 0))
	got, err = kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	require.NoError(t, kv.Set(ctx, "a", []byte("two"), 0))
	got, err = kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	require.NoError(t, kv.Delete(ctx, "a"))
	got, err = kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting an absent key is not an error.
	require.NoError(t, kv.Delete(ctx, "a"))
}

func TestMemoryKV_TTLExpiry(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "exp", []byte("v"), 10*time.Millisecond))
	got, err := kv.Get(ctx, "exp")
	require.NoError(t, err)
	assert.NotNil(t, got)

	time.Sleep(20 * time.Millisecond)
	got, err = kv.Get(ctx, "exp")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteKV_RoundTrip(t *testing.T) {
	kv, err := NewSQLiteKV(":memory:")
	require.NoError(t, err)
	defer kv.Close()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "session:abc", []byte(`{"session_id":"abc"}`), time.Hour))

	got, err := kv.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"session_id":"abc"}`), got)

	// Upsert replaces.
	require.NoError(t, kv.Set(ctx, "session:abc", []byte(`{"session_id":"abc","stage":"follow_up"}`), time.Hour))
	got, err = kv.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Contains(t, string(got), "follow_up")

	require.NoError(t, kv.Delete(ctx, "session:abc"))
	got, err = kv.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteKV_Expiry(t *testing.T) {
	kv, err := NewSQLiteKV(":memory:")
	require.NoError(t, err)
	defer kv.Close()
	ctx := context.Background()

	// Already-expired entry is invisible.
	require.NoError(t, kv.Set(ctx, "old", []byte("v"), -time.Second))
	got, err := kv.Get(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, kv.Set(ctx, "gone", []byte("v"), -time.Second))
	require.NoError(t, kv.Set(ctx, "kept", []byte("v"), time.Hour))
	n, err := kv.Sweep(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	got, err = kv.Get(ctx, "kept")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
