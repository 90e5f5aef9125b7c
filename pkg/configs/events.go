package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）.
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关，关闭时不初始化 MQ
	Media   MediaEventsConfig `mapstructure:"media"`
}

// MediaEventsConfig 媒体领域的事件开关.
type MediaEventsConfig struct {
	Stored bool `mapstructure:"stored"` // 媒体记录写入 KV 之后
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.media.stored", true)
}
