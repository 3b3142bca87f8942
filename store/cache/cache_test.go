package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU(10, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", []byte("one"), 0)
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("one"), got)

	c.Set("a", []byte("two"), 0)
	got, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("two"), got)
	assert.Equal(t, 1, c.Size())
}

func TestLRU_EvictsOldest(t *testing.T) {
	c := NewLRU(3, time.Minute)
	c.Set("a", []byte("1"), 0)
	c.Set("b", []byte("2"), 0)
	c.Set("c", []byte("3"), 0)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", []byte("4"), 0)
	assert.Equal(t, 3, c.Size())

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestLRU_TTL(t *testing.T) {
	c := NewLRU(10, time.Minute)
	c.Set("short", []byte("v"), 10*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get("short")
	assert.False(t, ok)

	c.Set("x", []byte("v"), 10*time.Millisecond)
	c.Set("y", []byte("v"), time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, c.CleanupExpired())
	assert.Equal(t, 1, c.Size())
}

func TestLRU_InvalidatePrefix(t *testing.T) {
	c := NewLRU(10, time.Minute)
	c.Set("search:flights:abc", []byte("1"), 0)
	c.Set("search:flights:def", []byte("2"), 0)
	c.Set("search:hotels:abc", []byte("3"), 0)

	assert.Equal(t, 2, c.Invalidate("search:flights:*"))
	assert.Equal(t, 1, c.Size())

	assert.Equal(t, 1, c.Invalidate("search:hotels:abc"))
	assert.Equal(t, 0, c.Invalidate("search:hotels:abc"))
}

func TestTiered_LoaderPopulatesL1(t *testing.T) {
	tc := NewTiered(nil)
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context, key string) ([]byte, error) {
		calls++
		return []byte("fetched"), nil
	}

	value, hit, err := tc.Get(ctx, "k", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("fetched"), value)
	assert.Equal(t, 1, calls)

	// Second read is served from L1.
	value, hit, err = tc.Get(ctx, "k", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("fetched"), value)
	assert.Equal(t, 1, calls)
}

func TestTiered_LoaderError(t *testing.T) {
	tc := NewTiered(nil)
	boom := errors.New("provider down")

	value, hit, err := tc.Get(context.Background(), "k", func(context.Context, string) ([]byte, error) {
		return nil, boom
	})
	assert.Nil(t, value)
	assert.False(t, hit)
	assert.ErrorIs(t, err, boom)
}

func TestTiered_RemotePromotion(t *testing.T) {
	remote := &fakeRemote{data: map[string][]byte{"warm": []byte("shared")}}
	tc := NewTiered(&TieredConfig{L1MaxItems: 10, L1TTL: time.Minute, Remote: remote})
	ctx := context.Background()

	value, hit, err := tc.Get(ctx, "warm", nil)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("shared"), value)

	// Promoted entry now served from L1 even if the remote loses it.
	remote.Delete(ctx, "warm")
	value, hit, err = tc.Get(ctx, "warm", nil)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("shared"), value)
}

func TestTiered_NilRemoteIsNoop(t *testing.T) {
	remote := NewNilRemoteCache()
	remote.Set(context.Background(), "k", []byte("v"), time.Minute)
	_, ok := remote.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.NoError(t, remote.Close())
}

func TestSearchKey(t *testing.T) {
	a := SearchKey("flights", "Flights from DMM to BKK ", "")
	b := SearchKey("flights", "flights from dmm to bkk", "")
	assert.Equal(t, a, b, "normalization should collapse casing and whitespace")

	c := SearchKey("hotels", "flights from dmm to bkk", "")
	assert.NotEqual(t, a, c)

	d := SearchKey("flights", "flights from dmm to bkk", "Bangkok")
	assert.NotEqual(t, a, d)

	assert.Contains(t, a, "search:flights:")
}

type fakeRemote struct {
	data map[string][]byte
}

func (f *fakeRemote) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeRemote) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	f.data[key] = value
}

func (f *fakeRemote) Delete(_ context.Context, key string) { delete(f.data, key) }
func (f *fakeRemote) Clear(context.Context)                { f.data = map[string][]byte{} }
func (f *fakeRemote) Close() error                         { return nil }
