package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgcache "Horacle/pkg/cache"
	"Horacle/pkg/config"
	"Horacle/pkg/logger"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNeedsRedis(t *testing.T) {
	cfg := defaultConfig(t)
	assert.False(t, needsRedis(cfg))

	cfg.Queue.Enabled = true
	assert.True(t, needsRedis(cfg))

	cfg = defaultConfig(t)
	cfg.Cache.Backend = "layered"
	assert.True(t, needsRedis(cfg))

	cfg = defaultConfig(t)
	cfg.Ephemeris.TransitMemoRedis = true
	assert.True(t, needsRedis(cfg))
}

func TestProvideRedisClient_SkippedForMemoryBackend(t *testing.T) {
	client, cleanup, err := ProvideRedisClient(defaultConfig(t))
	require.NoError(t, err)
	assert.Nil(t, client)
	cleanup()
}

func TestProvideResultCache_Memory(t *testing.T) {
	c, cleanup := ProvideResultCache(defaultConfig(t), nil)
	defer cleanup()
	_, ok := c.(*pkgcache.MemoryCache)
	require.True(t, ok)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", 0))
	var got string
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)
}

func TestDisabledComponentsAreNil(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.RateLimit.Enabled = false

	store, cleanup, err := ProvideEventStore(cfg, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, store)
	cleanup()

	producer, cleanup, err := ProvideKafkaProducer(cfg, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, producer)
	cleanup()

	assert.Nil(t, ProvideEventPublisher(cfg, nil))

	consumer, err := ProvideKafkaConsumer(cfg, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, consumer)

	assert.Nil(t, ProvideRedisQueue(cfg, nil, logger.Nop()))
	assert.Nil(t, ProvideRateLimiter(cfg))
}

func TestProvideEventStore_SQLite(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "events.db")

	store, cleanup, err := ProvideEventStore(cfg, logger.Nop())
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, store)
	assert.NoError(t, store.Health(context.Background()))
}

func TestProvideRateLimiter(t *testing.T) {
	cfg := defaultConfig(t)
	l := ProvideRateLimiter(cfg)
	require.NotNil(t, l)
	for i := 0; i < cfg.RateLimit.Burst; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
	assert.False(t, l.Allow("10.0.0.1"))
}
