package statcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, found, err := store.Get(ctx, "stats:campaign:7::")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, store.Set(ctx, "stats:campaign:7::", []byte(`{"campaignId":7}`), time.Minute))

	payload, found, err := store.Get(ctx, "stats:campaign:7::")
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `{"campaignId":7}`, string(payload))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
}
