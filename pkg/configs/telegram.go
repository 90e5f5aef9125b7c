package configs

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultTelegramAPIBase = "https://api.telegram.org" // Bot API 根地址
)

// TelegramConfig Telegram Bot 上游配置，媒体文件最终保存在该 Bot 所在的会话中.
type TelegramConfig struct {
	APIBase  string `mapstructure:"api_base"  rule:"required,url"`
	BotToken string `mapstructure:"bot_token" rule:"required"`
	ChatID   string `mapstructure:"chat_id"   rule:"required"`
}

// BotEndpoint 返回 Bot 方法的完整地址，例如 sendDocument.
func (c *TelegramConfig) BotEndpoint(method string) string {
	return strings.TrimRight(c.APIBase, "/") + "/bot" + c.BotToken + "/" + method
}

// FileEndpoint 返回文件下载地址.
func (c *TelegramConfig) FileEndpoint(filePath string) string {
	return strings.TrimRight(c.APIBase, "/") + "/file/bot" + c.BotToken + "/" + strings.TrimLeft(filePath, "/")
}

func (c *TelegramConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.api_base", DefaultTelegramAPIBase)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
}
