package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/internal/storage"
	"github.com/yeisme/moments/pkg/internal/storage/db"
	"github.com/yeisme/moments/pkg/internal/storage/kv"
	"github.com/yeisme/moments/pkg/internal/storage/mq"
)

func newTestApp(t *testing.T, mgr *storage.Manager) *App {
	t.Helper()

	cfg := &configs.AppConfig{}
	cfg.Server.Timeout = 1

	return &App{
		config:  cfg,
		manager: mgr,
		server:  &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second},
	}
}

func newManager(t *testing.T) *storage.Manager {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	return &storage.Manager{KV: &kv.Client{KVStore: store, Type: kv.KVTypeMemory}}
}

func TestRunSubscribeFailureReleasesResources(t *testing.T) {
	mgr := newManager(t)

	var err error

	mgr.DB, err = db.New(context.Background(), &configs.DBConfig{
		Type:         configs.SQLite,
		Database:     "file:" + t.Name() + "?mode=memory&cache=shared",
		MaxIdleConns: 1,
	})
	require.NoError(t, err)

	// 没有 subscriber 的客户端，Subscribe 必然失败
	mgr.MQ = &mq.Client{}

	a := newTestApp(t, mgr)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "subscribe")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after subscribe failure")
	}

	assert.Error(t, mgr.DB.Ping(context.Background()), "db should be closed")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	a := newTestApp(t, newManager(t))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
