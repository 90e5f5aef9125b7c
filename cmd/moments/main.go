// Package main 启动 moments 媒体中转服务.
//
//	@title			Moments API
//	@version		1.0
//	@description	Moments 媒体中转服务，把 Telegram Bot API 当作文件存储，媒体记录保存在 KV 中。
//
//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/
//
//	@contact.name	yeisme
package main

import (
	"os"

	"github.com/yeisme/moments/pkg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
