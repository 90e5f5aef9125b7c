// Package cmd contains the command line applications for the project.
package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yeisme/moments/pkg/configs"
)

var (
	// configPath 配置文件或配置目录.
	configPath string
	// envFile 启动前加载的 dotenv 文件，不存在时忽略.
	envFile string
	// debug 打印 viper 调试信息.
	debug bool

	rootCmd = &cobra.Command{
		Use:           "moments",
		Short:         "Media relay for the moments feed, backed by the Telegram Bot API",
		Version:       configs.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print viper debug output")

	registerServeCommands()
	registerConfigsCommands()
	registerKVCommands()
	registerDBCommands()
	registerMQCommands()
	registerMediaCommands()
}

// loadConfig 供非 serve 子命令使用：读取并校验配置.
func loadConfig() (*configs.AppConfig, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, err
	}

	if err := configs.Validate(); err != nil {
		return nil, err
	}

	return configs.GetConfig(), nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
