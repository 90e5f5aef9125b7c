// Package configs 管理应用程序配置，包括服务、存储、消息队列与 Telegram 上游的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv），并支持环境变量覆盖与热重载.
//
// Example:
//
//	if err := configs.InitConfig("./"); err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// 环境变量以 MOMENTS_ 为前缀，层级以下划线分隔，例如:
//
//	MOMENTS_TELEGRAM_BOT_TOKEN=123:abc
//	MOMENTS_MEDIA_PUBLIC_DOMAIN=https://moments.example.com
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/moments/pkg/rule"
)

// AppVersion 应用版本号.
const AppVersion = "0.3.0"

// EnvPrefix 环境变量前缀.
const EnvPrefix = "MOMENTS"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // 服务器端口、超时等
		Log            LogConfig            `mapstructure:"log"`             // 日志相关配置
		KV             KVConfig             `mapstructure:"kv"`              // 媒体记录所在的键值存储
		DB             DBConfig             `mapstructure:"db"`              // 上传台账数据库
		MQ             MQConfig             `mapstructure:"mq"`              // 消息队列
		Events         EventsConfig         `mapstructure:"events"`          // 事件开关
		Telegram       TelegramConfig       `mapstructure:"telegram"`        // Telegram Bot 上游
		Media          MediaConfig          `mapstructure:"media"`           // 媒体对外地址与缓存策略
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // Prometheus 指标
		Tracing        TracingConfig        `mapstructure:"tracing"`         // OpenTelemetry 追踪
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // 熔断
		Scheduler      SchedulerConfig      `mapstructure:"scheduler"`       // 定时任务
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 找不到配置文件时仅使用默认值与环境变量.
func InitConfig(path string) error {
	appViper = viper.New()
	setAllDefaults(appViper)

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		appViper.SetConfigFile(path)
	} else {
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(filepath.Join(path, "configs"))

		for _, ext := range []string{"yaml", "yml", "json", "toml", "env", "dotenv"} {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.SetEnvPrefix(EnvPrefix)
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	fileLoaded := true

	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fileLoaded = false
	}

	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if fileLoaded {
		reloadConfigs(appViper, globalConfig.Server.ReloadConfig)
	}

	return nil
}

// Validate 校验当前全局配置.
func Validate() error {
	return globalConfig.Validate()
}

// Validate 按 rule 标签校验配置；DB 与 MQ 仅在启用时校验.
func (c *AppConfig) Validate() error {
	sections := []struct {
		name    string
		enabled bool
		value   any
	}{
		{"server", true, &c.Server},
		{"log", true, &c.Log},
		{"kv", true, &c.KV},
		{"telegram", true, &c.Telegram},
		{"media", true, &c.Media},
		{"tracing", c.Tracing.Enabled, &c.Tracing},
		{"scheduler", c.Scheduler.Enabled, &c.Scheduler},
		{"db", c.DB.Enabled, &c.DB},
		{"mq", c.Events.Enabled, &c.MQ},
	}

	for _, s := range sections {
		if !s.enabled {
			continue
		}

		if err := rule.ValidateStruct(s.value); err != nil {
			return fmt.Errorf("invalid %s config: %w", s.name, err)
		}
	}

	if c.KV.Type == "groupcache" && len(c.KV.Groupcache.Peers) > 0 {
		return fmt.Errorf("invalid kv config: %w", ErrGroupcachePeers)
	}

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var (
		serverConfig   ServerConfig
		logConfig      LogConfig
		kvConfig       KVConfig
		dbConfig       DBConfig
		mqConfig       MQConfig
		eventsConfig   EventsConfig
		telegramConfig TelegramConfig
		mediaConfig    MediaConfig
		metricsConfig  MetricsConfig
		tracingConfig  TracingConfig
		rateLimit      RateLimitConfig
		circuitBreaker CircuitBreakerConfig
		schedConfig    SchedulerConfig
	)

	serverConfig.setDefaults(v)
	logConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	eventsConfig.setDefaults(v)
	telegramConfig.setDefaults(v)
	mediaConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	rateLimit.setDefaults(v)
	circuitBreaker.setDefaults(v)
	schedConfig.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)

		if err := v.Unmarshal(&globalConfig); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
		}
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回全局 Viper 实例，未初始化时返回 nil.
func GetViper() *viper.Viper {
	return appViper
}
