package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tabungan/internal/auth/store"
)

func TestMemory(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	revoked, err := m.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, m.Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	require.NoError(t, m.Revoke(ctx, "old", time.Now().Add(-time.Minute)))

	revoked, err = m.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = m.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	r := store.NewRedis(client)
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "abc", time.Now().Add(time.Hour)))

	revoked, err := r.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)

	revoked, err = r.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "expired", time.Now().Add(-time.Second)))
	assert.False(t, mr.Exists("revoked:expired"))
}
