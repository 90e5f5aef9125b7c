package configs

import (
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel      = "info"             // 日志级别
	DefaultLogFormat     = "console"          // 控制台输出格式: console 或 json
	DefaultLogEnableFile = false              // 是否同时写入滚动日志文件
	DefaultLogFilePath   = "logs/moments.log" // 日志文件路径
	DefaultLogMaxSize    = 100                // 单个日志文件最大尺寸（MB）
	DefaultLogMaxBackups = 7                  // 保留的旧文件数量
	DefaultLogMaxAge     = 28                 // 旧文件最大保存天数
	DefaultLogCompress   = true               // 是否压缩旧文件
)

type (
	// LogConfig 日志相关配置.
	LogConfig struct {
		Level      string `mapstructure:"level"        rule:"oneof=trace debug info warn error fatal panic disabled"`
		Format     string `mapstructure:"format"       rule:"oneof=console json"`
		EnableFile bool   `mapstructure:"enable_file"`
		FilePath   string `mapstructure:"file_path"`
		MaxSize    int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAge     int    `mapstructure:"max_age_days"`
		Compress   bool   `mapstructure:"compress"`
	}
)

func (l *LogConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.enable_file", DefaultLogEnableFile)
	v.SetDefault("log.file_path", DefaultLogFilePath)
	v.SetDefault("log.max_size_mb", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age_days", DefaultLogMaxAge)
	v.SetDefault("log.compress", DefaultLogCompress)
}
