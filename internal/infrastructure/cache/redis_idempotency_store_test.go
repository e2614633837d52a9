package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// newTestRedis levanta Redis en un contenedor y devuelve su dirección host:puerto.
func newTestRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con Redis omitida en modo -short")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "contenedor Redis")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	return opts.Addr
}

func TestRedisStore_SetNXConTTL(t *testing.T) {
	addr := newTestRedis(t)
	ctx := context.Background()

	store, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer store.Close()

	first, err := store.MarkProcessed(ctx, "u1:k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkProcessed(ctx, "u1:k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, again, "SET NX no pisa una clave viva")

	ttl, err := store.client.TTL(ctx, defaultKeyPrefix+"u1:k1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
	assert.LessOrEqual(t, ttl, time.Minute)

	other, err := store.MarkProcessed(ctx, "u2:k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, other, "la clave es por usuario")

	require.NoError(t, store.Release(ctx, "u1:k1"))
	exists, err := store.client.Exists(ctx, defaultKeyPrefix+"u1:k1").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	afterRelease, err := store.MarkProcessed(ctx, "u1:k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, afterRelease)
}

func TestRedisStore_Vencimiento(t *testing.T) {
	addr := newTestRedis(t)
	ctx := context.Background()

	store, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer store.Close()

	ok, err := store.MarkProcessed(ctx, "corta", 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		ok, err := store.MarkProcessed(ctx, "corta", time.Minute)
		return err == nil && ok
	}, 5*time.Second, 100*time.Millisecond, "la clave vencida se puede reutilizar")
}

func TestFactory_ConRedisDisponible(t *testing.T) {
	addr := newTestRedis(t)

	store, err := NewIdempotencyStore(context.Background(), RedisConfig{Addr: addr}, false, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()
	_, ok := store.(*RedisIdempotencyStore)
	assert.True(t, ok)
}
