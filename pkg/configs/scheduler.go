package configs

import "github.com/spf13/viper"

const (
	DefaultLedgerReconcileCron = "20 3 * * *" // 每天 03:20
)

// SchedulerConfig 定时任务配置.
type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// LedgerReconcileCron 台账对账任务的 cron 表达式（5 段）
	LedgerReconcileCron string `mapstructure:"ledger_reconcile_cron" rule:"required"`
}

func (c *SchedulerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.ledger_reconcile_cron", DefaultLedgerReconcileCron)
}
