// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/moments/pkg/configs"
	ctxPkg "github.com/yeisme/moments/pkg/context"
	"github.com/yeisme/moments/pkg/internal/service"
	"github.com/yeisme/moments/pkg/internal/storage"
	"github.com/yeisme/moments/pkg/log"
	"github.com/yeisme/moments/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 按 scheduler.ledger_reconcile_cron（默认每天 03:20）补录缺失的上传台账
//
// 台账数据库未启用时不注册任何任务.
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager, cfg *configs.SchedulerConfig) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if mgr == nil {
		return errors.New("storage manager is nil")
	}

	if mgr.GetDBClient() == nil {
		log.Logger().Info().Msg("ledger database disabled, skip ledger jobs")
		return nil
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	return sched.AddCron(baseCtx, JobLedgerReconcile, cfg.LedgerReconcileCron, runLedgerReconcile)
}

// runLedgerReconcile 遍历 KV 键并补录台账.
func runLedgerReconcile(ctx context.Context) error {
	l := log.Logger().With().Str("job", JobLedgerReconcile).Logger()

	svc, err := service.NewLedgerService(ctx)
	if err != nil {
		return err
	}

	start := time.Now()

	res, err := svc.Reconcile(ctx)
	if err != nil {
		return err
	}

	l.Info().
		Int("scanned", res.Scanned).
		Int("added", res.Added).
		Int("skipped", res.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("ledger reconciled")

	return nil
}
