package configs

import (
	"github.com/spf13/viper"
)

// MetricsConfig Prometheus 指标相关配置.
// 指标挂载在主服务的 /metrics 路径上.
type MetricsConfig struct {
	Enabled        bool              `mapstructure:"enabled"`         // 是否启用 Metrics
	Namespace      string            `mapstructure:"namespace"`       // 指标名前缀
	RuntimeMetrics bool              `mapstructure:"runtime_metrics"` // 是否导出默认注册表（Go 运行时、进程与 GORM 指标）
	Pprof          bool              `mapstructure:"pprof"`           // 是否暴露 /debug/pprof
	Labels         map[string]string `mapstructure:"labels"`          // 附加到所有指标的常量标签
}

// setDefaults 设置Metrics配置的默认值.
func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "moments")
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.pprof", false)
	v.SetDefault("metrics.labels", map[string]string{})
}
