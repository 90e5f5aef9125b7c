package kv_test

import (
	"context"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/internal/storage/kv"
)

func newMemory(t testing.TB) kv.KVStore {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	require.NoError(t, err)

	return store
}

func newGroupcache(t testing.TB, name string) kv.KVStore {
	t.Helper()

	cfg := &configs.GroupcacheKVConfig{
		Name:       name,
		CacheBytes: 8 * 1024 * 1024,
	}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeGroupcache, cfg)
	require.NoError(t, err)

	return store
}

// exerciseStore 各实现共享的行为校验.
func exerciseStore(t *testing.T, store kv.KVStore) {
	ctx := context.Background()
	record := []byte(`{"key":"1712000000000.png","fileId":"AgAD"}`)

	_, err := store.Get(ctx, "1712000000000.png")
	require.ErrorIs(t, err, kv.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "1712000000000.png", record, 0))

	got, err := store.Get(ctx, "1712000000000.png")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	ok, err := store.Exists(ctx, "1712000000000.png")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Set(ctx, "1712000000001.mp4", []byte(`{}`), 0))
	require.NoError(t, store.Set(ctx, "notes", []byte(`x`), 0))

	keys, err := store.Keys(ctx, "*.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"1712000000000.png"}, keys)

	all, err := store.Keys(ctx, "")
	require.NoError(t, err)
	sort.Strings(all)
	assert.Equal(t, []string{"1712000000000.png", "1712000000001.mp4", "notes"}, all)

	require.NoError(t, store.Delete(ctx, "1712000000000.png"))

	_, err = store.Get(ctx, "1712000000000.png")
	require.ErrorIs(t, err, kv.ErrKeyNotFound)

	ok, err = store.Exists(ctx, "1712000000000.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryKV(t *testing.T) {
	store := newMemory(t)
	defer store.Close()

	exerciseStore(t, store)
}

func TestGroupcacheKV(t *testing.T) {
	store := newGroupcache(t, "test-groupcache-behaviour")
	defer store.Close()

	exerciseStore(t, store)
}

func TestGroupcacheKVDuplicateGroup(t *testing.T) {
	newGroupcache(t, "test-groupcache-dup")

	_, err := kv.NewKVStore(context.Background(), kv.KVTypeGroupcache, &configs.GroupcacheKVConfig{
		Name:       "test-groupcache-dup",
		CacheBytes: 1024 * 1024,
	})
	assert.Error(t, err)
}

func TestGroupcacheKVRejectsPeers(t *testing.T) {
	_, err := kv.NewKVStore(context.Background(), kv.KVTypeGroupcache, &configs.GroupcacheKVConfig{
		Name:       "test-groupcache-peers",
		CacheBytes: 1024 * 1024,
		Peers:      []string{"http://10.0.0.1:8080", "http://10.0.0.2:8080"},
	})
	assert.ErrorIs(t, err, configs.ErrGroupcachePeers)
}

func TestGroupcacheKVDeleteIsImmediate(t *testing.T) {
	ctx := context.Background()
	store := newGroupcache(t, "test-groupcache-delete")

	require.NoError(t, store.Set(ctx, "1712000000000.png", []byte("v"), 0))

	// 先读一次让值进入 groupcache 的缓存
	_, err := store.Get(ctx, "1712000000000.png")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "1712000000000.png"))

	_, err = store.Get(ctx, "1712000000000.png")
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)
}

func TestMemoryKVTTL(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Second))

	got, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	time.Sleep(1100 * time.Millisecond)

	_, err = store.Get(ctx, "short")
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)
}

func TestNewKVStoreUnsupported(t *testing.T) {
	_, err := kv.NewKVStore(context.Background(), kv.KVType("etcd"), nil)
	assert.Error(t, err)
}

func TestInvalidConfigType(t *testing.T) {
	ctx := context.Background()

	for _, typ := range []kv.KVType{kv.KVTypeRedis, kv.KVTypeNATS, kv.KVTypeGroupcache} {
		_, err := kv.NewKVStore(ctx, typ, "not-a-config")
		assert.Error(t, err, typ)
	}
}

func TestNewKVClientWithConfigMemory(t *testing.T) {
	client, err := kv.NewKVClientWithConfig(context.Background(), &configs.KVConfig{Type: "memory"})
	require.NoError(t, err)
	assert.Equal(t, kv.KVTypeMemory, client.Type)
	assert.Contains(t, kv.GetRegisteredKVTypes(), kv.KVTypeRedis)
}

// Optional: enable with ENABLE_REDIS_TEST=1 and REDIS_ADDR set (default 127.0.0.1:6379).
func TestRedisKV(t *testing.T) {
	if os.Getenv("ENABLE_REDIS_TEST") == "" {
		t.Skip("set ENABLE_REDIS_TEST=1 to enable")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeRedis, &configs.RedisKVConfig{Addr: addr, DB: 15})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer store.Close()

	exerciseStore(t, store)
}

func BenchmarkMemoryKV(b *testing.B) {
	benchKV(b, newMemory(b))
}

func BenchmarkGroupcacheKV(b *testing.B) {
	benchKV(b, newGroupcache(b, "bench-groupcache"))
}

// benchKV 模拟一次上传写入与多次读取.
func benchKV(b *testing.B, store kv.KVStore) {
	ctx := context.Background()
	record := []byte(`{"key":"k","fileId":"BQACAgUAAxkDAAIB","fileName":"clip.mp4","mimeType":"video/mp4"}`)

	b.ReportAllocs()

	for i := 0; b.Loop(); i++ {
		key := fmt.Sprintf("%d.mp4", i)
		if err := store.Set(ctx, key, record, 0); err != nil {
			b.Fatalf("set failed: %v", err)
		}

		for range 4 {
			if _, err := store.Get(ctx, key); err != nil {
				b.Fatalf("get failed: %v", err)
			}
		}
	}
}
