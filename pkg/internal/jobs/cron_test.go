package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/internal/jobs"
	"github.com/yeisme/moments/pkg/internal/model"
	"github.com/yeisme/moments/pkg/internal/storage"
	"github.com/yeisme/moments/pkg/internal/storage/db"
	"github.com/yeisme/moments/pkg/internal/storage/kv"
	"github.com/yeisme/moments/pkg/scheduler"
)

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()

	s, err := scheduler.NewScheduler()
	require.NoError(t, err)

	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func newManager(t *testing.T, withDB bool) *storage.Manager {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	mgr := &storage.Manager{KV: &kv.Client{KVStore: store, Type: kv.KVTypeMemory}}

	if withDB {
		mgr.DB, err = db.New(context.Background(), &configs.DBConfig{
			Type:         configs.SQLite,
			Database:     "file:" + t.Name() + "?mode=memory&cache=shared",
			MaxIdleConns: 1,
		})
		require.NoError(t, err)
	}

	t.Cleanup(func() { _ = mgr.Close() })

	return mgr
}

func TestRegisterCronJobsWithoutDB(t *testing.T) {
	s := newScheduler(t)

	err := jobs.RegisterCronJobs(s, newManager(t, false), &configs.SchedulerConfig{
		LedgerReconcileCron: configs.DefaultLedgerReconcileCron,
	})
	require.NoError(t, err)
	assert.Empty(t, s.GetJobInfos())
}

func TestRegisterCronJobsNilArgs(t *testing.T) {
	cfg := &configs.SchedulerConfig{LedgerReconcileCron: configs.DefaultLedgerReconcileCron}

	assert.Error(t, jobs.RegisterCronJobs(nil, newManager(t, false), cfg))
	assert.Error(t, jobs.RegisterCronJobs(newScheduler(t), nil, cfg))
}

func TestLedgerReconcileJob(t *testing.T) {
	s := newScheduler(t)
	mgr := newManager(t, true)
	ctx := context.Background()

	rec := `{"key":"1712000000123.png","fileId":"F1","kind":"photo","fileName":"a.png","mimeType":"image/png"}`
	require.NoError(t, mgr.KV.Set(ctx, "1712000000123.png", []byte(rec), 0))

	require.NoError(t, jobs.RegisterCronJobs(s, mgr, &configs.SchedulerConfig{
		LedgerReconcileCron: configs.DefaultLedgerReconcileCron,
	}))

	info, err := s.GetJobInfoByName(jobs.JobLedgerReconcile)
	require.NoError(t, err)
	assert.Equal(t, configs.DefaultLedgerReconcileCron, info.CronExpr)

	require.NoError(t, s.RunNow(jobs.JobLedgerReconcile))

	assert.Eventually(t, func() bool {
		info, err := s.GetJobInfoByName(jobs.JobLedgerReconcile)
		return err == nil && info.Runs == 1 && info.Error == ""
	}, 2*time.Second, 10*time.Millisecond)

	var rows []model.MediaUpload
	require.NoError(t, mgr.DB.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "1712000000123.png", rows[0].Key)
	assert.Equal(t, "F1", rows[0].FileID)
}
