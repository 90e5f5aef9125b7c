package configs

import (
	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeGoChannel MQType = "gochannel" // 进程内，默认
	MQTypeNATS      MQType = "nats"
	MQTypeRedis     MQType = "redis"

	DefaultMQURL          = "nats://localhost:4222"
	DefaultMaxReconnects  = 5          // 最大重连次数
	DefaultReconnectWait  = 5          // 重连等待（秒）
	DefaultPingInterval   = 20         // ping 间隔（秒）
	DefaultBufferSize     = 32768      // 重连期间的发送缓冲（字节）
	DefaultMQClientID     = "moments"  // 连接名
	DefaultChannelBuffer  = 256        // gochannel 输出缓冲
	DefaultSubjectPrefix  = "moments." // NATS subject 前缀
	DefaultDurablePrefix  = "moments"  // JetStream durable 前缀
	DefaultMQRedisAddress = "localhost:6379"
)

// MQConfig 消息队列配置.
type MQConfig struct {
	Type      MQType           `mapstructure:"type"      rule:"oneof=gochannel nats redis"`
	Common    MQCommonConfig   `mapstructure:"common"`
	NATS      MQNATSConfig     `mapstructure:"nats"`
	Redis     MQRedisConfig    `mapstructure:"redis"`
	GoChannel MQChannelConfig  `mapstructure:"gochannel"`
	Metrics   MQMetricsEnabled `mapstructure:"metrics"`
}

// MQCommonConfig 连接型 MQ 的通用配置.
type MQCommonConfig struct {
	URL           string `mapstructure:"url"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	ClientID      string `mapstructure:"client_id"`
	MaxReconnects int    `mapstructure:"max_reconnects" rule:"min=-1,max=100"`
	ReconnectWait int    `mapstructure:"reconnect_wait" rule:"min=1,max=300"`
	PingInterval  int    `mapstructure:"ping_interval"  rule:"min=1,max=300"`
	BufferSize    int    `mapstructure:"buffer_size"    rule:"min=1024,max=1048576"`
}

// MQNATSConfig NATS MQ 配置.
type MQNATSConfig struct {
	JetStreamEnabled       bool     `mapstructure:"jetstream_enabled"`
	JetStreamAutoProvision bool     `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool     `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool     `mapstructure:"jetstream_ack_async"`
	DurablePrefix          string   `mapstructure:"durable_prefix"`
	SubjectPrefix          string   `mapstructure:"subject_prefix"`
	QueueGroup             string   `mapstructure:"queue_group"`
	JWT                    string   `mapstructure:"jwt"`
	NKey                   string   `mapstructure:"nkey"`
	ClusterURLs            []string `mapstructure:"cluster_urls"`
}

// MQRedisConfig Redis Pub/Sub 配置.
type MQRedisConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// MQChannelConfig 进程内 gochannel 配置.
type MQChannelConfig struct {
	OutputBuffer int64 `mapstructure:"output_buffer" rule:"min=0"`
	Persistent   bool  `mapstructure:"persistent"`
}

// MQMetricsEnabled 是否为 Publisher/Subscriber 装饰 Prometheus 指标（需同时启用 metrics）.
type MQMetricsEnabled struct {
	Enabled bool `mapstructure:"enabled"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置MQ配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeGoChannel)

	v.SetDefault("mq.common.url", DefaultMQURL)
	v.SetDefault("mq.common.user", "")
	v.SetDefault("mq.common.password", "")
	v.SetDefault("mq.common.client_id", DefaultMQClientID)
	v.SetDefault("mq.common.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.common.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.common.ping_interval", DefaultPingInterval)
	v.SetDefault("mq.common.buffer_size", DefaultBufferSize)

	v.SetDefault("mq.nats.jetstream_enabled", true)
	v.SetDefault("mq.nats.jetstream_auto_provision", true)
	v.SetDefault("mq.nats.jetstream_track_msg_id", true)
	v.SetDefault("mq.nats.jetstream_ack_async", false)
	v.SetDefault("mq.nats.durable_prefix", DefaultDurablePrefix)
	v.SetDefault("mq.nats.subject_prefix", DefaultSubjectPrefix)
	v.SetDefault("mq.nats.queue_group", "")
	v.SetDefault("mq.nats.jwt", "")
	v.SetDefault("mq.nats.nkey", "")
	v.SetDefault("mq.nats.cluster_urls", []string{})

	v.SetDefault("mq.redis.addr", DefaultMQRedisAddress)
	v.SetDefault("mq.redis.password", "")
	v.SetDefault("mq.redis.db", 0)

	v.SetDefault("mq.gochannel.output_buffer", DefaultChannelBuffer)
	v.SetDefault("mq.gochannel.persistent", false)

	v.SetDefault("mq.metrics.enabled", true)
}
