// Package app 提供应用程序的初始化、运行与优雅关闭.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/internal/jobs"
	"github.com/yeisme/moments/pkg/internal/router"
	"github.com/yeisme/moments/pkg/internal/service"
	"github.com/yeisme/moments/pkg/internal/storage"
	"github.com/yeisme/moments/pkg/log"
	"github.com/yeisme/moments/pkg/metrics"
	"github.com/yeisme/moments/pkg/queue"
	"github.com/yeisme/moments/pkg/scheduler"
	"github.com/yeisme/moments/pkg/tracing"
)

// App 聚合 HTTP 服务、台账消费者与定时任务.
type App struct {
	Engine *gin.Engine

	config  *configs.AppConfig
	manager *storage.Manager
	sched   *scheduler.Scheduler
	server  *http.Server
}

// NewApp 加载配置并初始化全部依赖. 任一步骤失败都会释放已打开的资源.
func NewApp(ctx context.Context, configPath string) (a *App, err error) {
	if err = configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	if err = configs.Validate(); err != nil {
		return nil, err
	}

	config := configs.GetConfig()

	log.Init()

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if err = tracing.InitTracer(config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err = metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	a = &App{config: config}

	defer func() {
		if err != nil {
			a.close(context.Background())
			a = nil
		}
	}()

	if a.manager, err = storage.Init(ctx); err != nil {
		return a, fmt.Errorf("init storage: %w", err)
	}

	if config.Scheduler.Enabled {
		if a.sched, err = scheduler.NewScheduler(); err != nil {
			return a, fmt.Errorf("init scheduler: %w", err)
		}

		if err = jobs.RegisterCronJobs(a.sched, a.manager, &config.Scheduler); err != nil {
			return a, fmt.Errorf("register jobs: %w", err)
		}
	}

	a.Engine = router.New(config, a.manager, a.sched)
	a.server = &http.Server{
		Addr:              net.JoinHostPort(config.Server.Host, strconv.Itoa(config.Server.Port)),
		Handler:           a.Engine,
		ReadHeaderTimeout: config.Server.GetTimeoutDuration(),
	}

	return a, nil
}

// Run 启动 HTTP 服务、台账消费者与调度器，ctx 结束后优雅关闭并释放资源.
// 订阅失败时不会启动任何服务，直接释放资源返回.
func (a *App) Run(ctx context.Context) error {
	l := log.Logger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var consume func(context.Context)

	if a.manager.GetDBClient() != nil && a.manager.GetMQClient() != nil {
		msgs, err := a.manager.GetMQClient().Subscribe(ctx, queue.TopicMediaStored)
		if err != nil {
			a.close(context.Background())
			return fmt.Errorf("subscribe %s: %w", queue.TopicMediaStored, err)
		}

		ledger := service.NewLedgerServiceWith(a.manager.GetDBClient().DB, a.manager.GetKVClient())
		consume = func(ctx context.Context) { ledger.Consume(ctx, msgs) }
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info().Str("addr", a.server.Addr).Str("version", configs.AppVersion).Msg("HTTP server listening")

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.GetTimeoutDuration())
		defer cancel()

		l.Info().Msg("shutting down HTTP server")

		return a.server.Shutdown(shutdownCtx)
	})

	if consume != nil {
		g.Go(func() error {
			l.Info().Str("topic", queue.TopicMediaStored).Msg("ledger consumer started")
			consume(gctx)

			return nil
		})
	}

	if a.sched != nil {
		a.sched.Start()
	}

	err := g.Wait()

	a.close(context.Background())

	return err
}

// close 依次停止调度器、刷新追踪并关闭存储.
func (a *App) close(ctx context.Context) {
	l := log.Logger()

	if a.sched != nil {
		if err := a.sched.Stop(); err != nil {
			l.Warn().Err(err).Msg("stop scheduler")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := tracing.ShutdownTracer(ctx); err != nil {
		l.Warn().Err(err).Msg("shutdown tracer")
	}

	if a.manager != nil {
		if err := a.manager.Close(); err != nil {
			l.Warn().Err(err).Msg("close storage")
		}
	}
}
