package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/moments/pkg/configs"
)

// GroupcacheKV 基于 Groupcache 的单节点 KV 实现.
// 写入保存在本节点，读取经 groupcache 的热点缓存回源到本地数据.
type GroupcacheKV struct {
	cache *groupcache.Group
	data  map[string][]byte
	mu    sync.RWMutex
}

// groupcacheGetter 从本地数据回源.
type groupcacheGetter struct {
	kv *GroupcacheKV
}

func (g *groupcacheGetter) Get(_ context.Context, key string, dest groupcache.Sink) error {
	g.kv.mu.RLock()
	value, exists := g.kv.data[key]
	g.kv.mu.RUnlock()

	if !exists {
		return notFound(key)
	}

	return dest.SetBytes(value)
}

// NewGroupcacheKV 创建 Groupcache KV 实例，组名在进程内必须唯一.
func NewGroupcacheKV(_ context.Context, config any) (KVStore, error) {
	gcConfig, ok := config.(*configs.GroupcacheKVConfig)
	if !ok || gcConfig == nil {
		return nil, fmt.Errorf("invalid Groupcache config")
	}

	if len(gcConfig.Peers) > 0 {
		return nil, configs.ErrGroupcachePeers
	}

	if groupcache.GetGroup(gcConfig.Name) != nil {
		return nil, fmt.Errorf("groupcache group already exists: %s", gcConfig.Name)
	}

	kv := &GroupcacheKV{data: make(map[string][]byte)}
	kv.cache = groupcache.NewGroup(gcConfig.Name, gcConfig.CacheBytes, &groupcacheGetter{kv: kv})

	return kv, nil
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	// 先检查本地数据，保证删除后立即不可见
	g.mu.RLock()
	_, exists := g.data[key]
	g.mu.RUnlock()

	if !exists {
		return nil, notFound(key)
	}

	var raw []byte

	if err := g.cache.Get(ctx, key, groupcache.AllocatingByteSliceSink(&raw)); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	data, expired, _, err := decodeWithTTL(raw, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		return nil, notFound(key)
	}

	result := make([]byte, len(data))
	copy(result, data)

	return result, nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, _, err := encodeWithTTL(value, ttl, time.Now())
	if err != nil {
		return err
	}

	data := make([]byte, len(encoded))
	copy(data, encoded)

	g.mu.Lock()
	g.data[key] = data
	g.mu.Unlock()

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.data, key)

	return nil
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(_ context.Context, key string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, exists := g.data[key]

	return exists, nil
}

// Keys 获取匹配模式的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.data))
	for key := range g.data {
		if matchKey(pattern, key) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Close Groupcache 没有显式的关闭方法.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
