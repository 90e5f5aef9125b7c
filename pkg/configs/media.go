package configs

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultMediaPublicDomain = "http://localhost:8080"
	DefaultMediaMaxUploadMB  = 50       // Bot API sendDocument 上限
	DefaultMediaCacheMaxAge  = 31536000 // 一年，单位秒
)

// MediaConfig 媒体对外地址、上传大小与缓存策略.
type MediaConfig struct {
	// PublicDomain 拼接对外 URL 的根地址，如 https://moments.example.com
	PublicDomain string `mapstructure:"public_domain" rule:"required,url"`
	MaxUploadMB  int64  `mapstructure:"max_upload_mb" rule:"min=1,max=2000"`
	CacheMaxAge  int    `mapstructure:"cache_max_age" rule:"min=0"`
}

// Domain 返回去除末尾斜杠的对外根地址.
func (c *MediaConfig) Domain() string {
	return strings.TrimRight(c.PublicDomain, "/")
}

// MaxUploadBytes 返回上传大小上限（字节）.
func (c *MediaConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func (c *MediaConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("media.public_domain", DefaultMediaPublicDomain)
	v.SetDefault("media.max_upload_mb", DefaultMediaMaxUploadMB)
	v.SetDefault("media.cache_max_age", DefaultMediaCacheMaxAge)
}
