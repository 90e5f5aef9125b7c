package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestAddCron(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddCron(context.Background(), "b.job", "20 3 * * *", func(context.Context) error { return nil }))
	require.NoError(t, s.AddCron(context.Background(), "a.job", "0 * * * *", func(context.Context) error { return nil }))

	err := s.AddCron(context.Background(), "a.job", "0 * * * *", func(context.Context) error { return nil })
	assert.Error(t, err)

	infos := s.GetJobInfos()
	require.Len(t, infos, 2)
	assert.Equal(t, "a.job", infos[0].Name)
	assert.Equal(t, "20 3 * * *", infos[1].CronExpr)
	assert.Equal(t, scheduler.StatusScheduled, infos[1].Status)
	assert.False(t, infos[1].NextRun.IsZero())
}

func TestAddCronInvalidExpr(t *testing.T) {
	s := newScheduler(t)

	err := s.AddCron(context.Background(), "bad", "not a cron", func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.Empty(t, s.GetJobInfos())
}

func TestRunNowRecordsOutcome(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddCron(context.Background(), "ok", "0 0 1 1 *", func(context.Context) error { return nil }))
	require.NoError(t, s.AddCron(context.Background(), "fail", "0 0 1 1 *", func(context.Context) error {
		return errors.New("boom")
	}))

	require.NoError(t, s.RunNow("ok"))
	require.NoError(t, s.RunNow("fail"))

	assert.Eventually(t, func() bool {
		info, err := s.GetJobInfoByName("ok")
		return err == nil && info.Runs == 1 && !info.LastSuccess.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		info, err := s.GetJobInfoByName("fail")
		return err == nil && info.Status == scheduler.StatusError && info.Error == "boom"
	}, 2*time.Second, 10*time.Millisecond)

	assert.Error(t, s.RunNow("missing"))
}

func TestRemoveJobByName(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddCron(context.Background(), "tmp", "0 * * * *", func(context.Context) error { return nil }))
	require.NoError(t, s.RemoveJobByName("tmp"))

	_, err := s.GetJobInfoByName("tmp")
	assert.Error(t, err)
	assert.Error(t, s.RemoveJobByName("tmp"))
}
