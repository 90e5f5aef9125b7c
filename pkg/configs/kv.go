package configs

import (
	"errors"

	"github.com/spf13/viper"
)

const (
	DefaultKVType            = "memory"
	DefaultKVNATSBucket      = "moments-media"
	DefaultKVGroupcacheName  = "moments-media"
	DefaultKVGroupcacheBytes = 64 * 1024 * 1024 // 64MB
	DefaultKVRedisAddr       = "localhost:6379"
	DefaultKVNATSURL         = "nats://localhost:4222"
)

// KVConfig 媒体记录所在的键值存储配置.
type KVConfig struct {
	Type       string             `mapstructure:"type"       rule:"oneof=memory redis nats groupcache"`
	Redis      RedisKVConfig      `mapstructure:"redis"`
	NATS       NATSKVConfig       `mapstructure:"nats"`
	Groupcache GroupcacheKVConfig `mapstructure:"groupcache"`
}

// RedisKVConfig Redis KV 配置.
type RedisKVConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// NATSKVConfig NATS JetStream KV 配置.
type NATSKVConfig struct {
	URL      string `mapstructure:"url"      rule:"required"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Bucket   string `mapstructure:"bucket"   rule:"required"`
}

// GroupcacheKVConfig Groupcache KV 配置.
// 记录只写入本节点，groupcache 仅作单节点进程内缓存使用，不支持对等节点.
type GroupcacheKVConfig struct {
	Name       string   `mapstructure:"name"        rule:"required"`
	CacheBytes int64    `mapstructure:"cache_bytes" rule:"min=1048576"`
	Peers      []string `mapstructure:"peers"`
}

// ErrGroupcachePeers 配置了 groupcache 对等节点.
// 其他节点读不到本节点写入的记录，删除也无法让对端缓存失效.
var ErrGroupcachePeers = errors.New("groupcache peers are not supported: records are written on the local node only")

// GetKVType 返回当前配置的 KV 类型.
func (c *KVConfig) GetKVType() string {
	return c.Type
}

// setDefaults 设置 KV 配置的默认值.
func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", DefaultKVType)

	v.SetDefault("kv.redis.addr", DefaultKVRedisAddr)
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)

	v.SetDefault("kv.nats.url", DefaultKVNATSURL)
	v.SetDefault("kv.nats.user", "")
	v.SetDefault("kv.nats.password", "")
	v.SetDefault("kv.nats.bucket", DefaultKVNATSBucket)

	v.SetDefault("kv.groupcache.name", DefaultKVGroupcacheName)
	v.SetDefault("kv.groupcache.cache_bytes", DefaultKVGroupcacheBytes)
	v.SetDefault("kv.groupcache.peers", []string{})
}
