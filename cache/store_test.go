package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"financeapi.app/metrics"
)

// setupStore creates a mock Redis server and a store adapter pointed at it
func setupStore(t *testing.T) (*miniredis.Miniredis, *Store, *metrics.CacheCollector) {
	t.Helper()

	mockRedis := miniredis.RunT(t)
	collector := metrics.NewCacheCollector("redis")
	store := NewStore(&StoreConfig{
		Addr:         mockRedis.Addr(),
		OpTimeout:    time.Second,
		PingInterval: time.Hour,
	}, collector)
	t.Cleanup(func() { _ = store.Close() })

	return mockRedis, store, collector
}

func TestStoreSetAndGet(t *testing.T) {
	mockRedis, store, collector := setupStore(t)
	ctx := context.Background()

	key := Key("analytics:7:month")
	value := []byte(`{"netCents":1250}`)

	store.Set(ctx, key, value, time.Minute)
	assert.Equal(t, time.Minute, mockRedis.TTL(string(key)))

	retrieved, found := store.Get(ctx, key)
	require.True(t, found)
	assert.Equal(t, value, retrieved)

	snapshot := collector.Snapshot()
	assert.Equal(t, int64(1), snapshot.Sets)
	assert.Equal(t, int64(1), snapshot.Hits)
	assert.Equal(t, int64(0), snapshot.Errors)
}

func TestStoreGetMissing(t *testing.T) {
	_, store, collector := setupStore(t)

	retrieved, found := store.Get(context.Background(), Key("analytics:99:day"))
	assert.False(t, found)
	assert.Nil(t, retrieved)

	snapshot := collector.Snapshot()
	assert.Equal(t, int64(1), snapshot.Misses)
	assert.Equal(t, int64(0), snapshot.Errors)
}

func TestStoreSetRejectsNonPositiveTTL(t *testing.T) {
	_, store, collector := setupStore(t)
	ctx := context.Background()

	store.Set(ctx, Key("categories:global"), []byte("[]"), 0)
	store.Set(ctx, Key("categories:global"), []byte("[]"), -time.Minute)

	_, found := store.Get(ctx, Key("categories:global"))
	assert.False(t, found)
	assert.Equal(t, int64(0), collector.Snapshot().Sets)
}

func TestStoreTTLExpiration(t *testing.T) {
	mockRedis, store, _ := setupStore(t)
	ctx := context.Background()

	key := Key("transactions:3:list:abc")
	store.Set(ctx, key, []byte("page"), 100*time.Millisecond)

	_, found := store.Get(ctx, key)
	require.True(t, found)

	mockRedis.FastForward(150 * time.Millisecond)

	_, found = store.Get(ctx, key)
	assert.False(t, found)
}

func TestStoreDeleteIdempotent(t *testing.T) {
	_, store, collector := setupStore(t)
	ctx := context.Background()

	key := Key("analytics:7:week")
	store.Set(ctx, key, []byte("v"), time.Minute)

	assert.True(t, store.Delete(ctx, key))
	_, found := store.Get(ctx, key)
	assert.False(t, found)

	// deleting an absent key still succeeds
	assert.True(t, store.Delete(ctx, key))
	assert.Equal(t, int64(2), collector.Snapshot().Deletes)
}

func TestStoreDeleteMany(t *testing.T) {
	_, store, _ := setupStore(t)
	ctx := context.Background()

	keys := []Key{"analytics:7:day", "analytics:7:week", "analytics:7:month"}
	for _, key := range keys {
		store.Set(ctx, key, []byte("v"), time.Minute)
	}

	failed := store.DeleteMany(ctx, append(keys, Key("analytics:7:absent")))
	assert.Empty(t, failed)

	for _, key := range keys {
		_, found := store.Get(ctx, key)
		assert.False(t, found, "key %s should be gone", key)
	}
}

func TestStoreExists(t *testing.T) {
	_, store, _ := setupStore(t)
	ctx := context.Background()

	key := Key("categories:global")
	assert.False(t, store.Exists(ctx, key))

	store.Set(ctx, key, []byte("[]"), time.Minute)
	assert.True(t, store.Exists(ctx, key))
}

func TestStoreInfo(t *testing.T) {
	_, store, _ := setupStore(t)
	ctx := context.Background()

	key := Key("analytics:7:month")
	value := []byte(`{"totalIncomeCents":100}`)
	store.Set(ctx, key, value, time.Minute)

	t.Run("PresentKey", func(t *testing.T) {
		info := store.Info(ctx, string(key))
		assert.True(t, info.Present)
		assert.Equal(t, string(key), info.Key)
		assert.Equal(t, int64(len(value)), info.SizeBytes)
		assert.InDelta(t, 60, info.TTLSeconds, 1)
	})

	t.Run("AbsentKey", func(t *testing.T) {
		info := store.Info(ctx, "analytics:7:year")
		assert.False(t, info.Present)
		assert.Zero(t, info.SizeBytes)
		assert.Zero(t, info.TTLSeconds)
	})
}

func TestStoreFailOpenOnStoreError(t *testing.T) {
	mockRedis, store, collector := setupStore(t)
	ctx := context.Background()

	key := Key("analytics:7:month")
	store.Set(ctx, key, []byte("v"), time.Minute)

	mockRedis.SetError("forced failure")

	retrieved, found := store.Get(ctx, key)
	assert.False(t, found)
	assert.Nil(t, retrieved)

	store.Set(ctx, key, []byte("v2"), time.Minute)
	assert.False(t, store.Delete(ctx, key))

	snapshot := collector.Snapshot()
	assert.Equal(t, int64(3), snapshot.Errors)
	assert.Equal(t, int64(0), snapshot.Misses)

	// store recovers, reads serve again
	mockRedis.SetError("")
	retrieved, found = store.Get(ctx, key)
	require.True(t, found)
	assert.Equal(t, []byte("v"), retrieved)
}

func TestStoreUnreachableStartup(t *testing.T) {
	collector := metrics.NewCacheCollector("redis")
	store := NewStore(&StoreConfig{
		Addr:         "127.0.0.1:1",
		OpTimeout:    500 * time.Millisecond,
		PingInterval: time.Hour,
	}, collector)
	t.Cleanup(func() { _ = store.Close() })

	require.NotNil(t, store)
	assert.False(t, store.Healthy())

	_, found := store.Get(context.Background(), Key("categories:global"))
	assert.False(t, found)
	assert.GreaterOrEqual(t, collector.Snapshot().Errors, int64(1))
}

func TestStoreHealthyAtStartup(t *testing.T) {
	_, store, _ := setupStore(t)
	assert.True(t, store.Healthy())
}

func TestStoreHitRateAccounting(t *testing.T) {
	_, store, collector := setupStore(t)
	ctx := context.Background()

	store.Set(ctx, Key("analytics:1:day"), []byte("v"), time.Minute)

	store.Get(ctx, Key("analytics:1:day"))
	store.Get(ctx, Key("analytics:1:day"))
	store.Get(ctx, Key("analytics:1:week"))
	store.Get(ctx, Key("analytics:1:month"))
	store.Get(ctx, Key("analytics:1:year"))

	snapshot := collector.Snapshot()
	assert.Equal(t, int64(2), snapshot.Hits)
	assert.Equal(t, int64(3), snapshot.Misses)
	assert.InDelta(t, 0.4, snapshot.HitRate, 0.0001)
}
