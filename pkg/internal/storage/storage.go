// Package storage 聚合媒体服务依赖的存储资源：键值存储、上游 Bot API、台账数据库与消息队列.
//
// Example:
//
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//		// 处理错误
//	}
//	defer mgr.Close()
//
//	kvClient := mgr.GetKVClient()
//	blob := mgr.GetBlobClient()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/moments/pkg/configs"
	dbc "github.com/yeisme/moments/pkg/internal/storage/db"
	kvc "github.com/yeisme/moments/pkg/internal/storage/kv"
	mqc "github.com/yeisme/moments/pkg/internal/storage/mq"
	"github.com/yeisme/moments/pkg/internal/storage/telegram"
	nlog "github.com/yeisme/moments/pkg/log"
)

// Manager 聚合所有存储资源. DB 与 MQ 未启用时为 nil.
type Manager struct {
	KV   *kvc.Client
	Blob *telegram.Client
	DB   *dbc.Client
	MQ   *mqc.Client
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 使用全局配置初始化存储，重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = New(ctx, configs.GetConfig())
	})

	return mgr, mgrErr
}

// New 按配置创建存储资源，任一必需资源失败时关闭已打开的部分.
func New(ctx context.Context, cfg *configs.AppConfig) (m *Manager, err error) {
	m = &Manager{}

	defer func() {
		if err != nil {
			_ = m.Close()
			m = nil
		}
	}()

	if m.KV, err = kvc.NewKVClientWithConfig(ctx, &cfg.KV); err != nil {
		return m, fmt.Errorf("init kv: %w", err)
	}

	if m.Blob, err = telegram.New(cfg.Telegram); err != nil {
		return m, fmt.Errorf("init telegram client: %w", err)
	}

	if cfg.DB.Enabled {
		if m.DB, err = dbc.New(ctx, &cfg.DB); err != nil {
			return m, fmt.Errorf("init db: %w", err)
		}

		if cfg.Metrics.Enabled {
			if err = m.DB.RegisterGORMMetrics(cfg.DB.Database); err != nil {
				return m, err
			}
		}
	}

	if cfg.Events.Enabled {
		if m.MQ, err = mqc.NewWithConfig(ctx, &cfg.MQ, cfg.Metrics.Enabled); err != nil {
			return m, fmt.Errorf("init mq: %w", err)
		}
	}

	nlog.Logger().Info().
		Str("kv", string(m.KV.Type)).
		Bool("db", m.DB != nil).
		Bool("mq", m.MQ != nil).
		Msg("storage manager initialized")

	return m, nil
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetBlobClient 获取 Bot API 客户端.
func (m *Manager) GetBlobClient() *telegram.Client {
	return m.Blob
}

// GetDBClient 获取 DB 客户端，未启用时为 nil.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetMQClient 获取 MQ 客户端，未启用时为 nil.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 关闭所有已打开的资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	return errors.Join(errs...)
}
