// Package router 管理路由配置，把 handle 包的处理器与中间件绑定到 gin 引擎.
package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/internal/storage"
	"github.com/yeisme/moments/pkg/metrics"
	"github.com/yeisme/moments/pkg/middleware"
	"github.com/yeisme/moments/pkg/rule"
	"github.com/yeisme/moments/pkg/scheduler"
)

const (
	// APIPrefix 对外接口前缀.
	APIPrefix = "/api"
	// FilePrefix 媒体字节路由前缀，响应可被前置缓存层长期缓存.
	FilePrefix = "/api/file/"
)

// New 创建 gin 引擎并注册全部路由. sched 可以为 nil.
//
//	POST /api/upload-file
//	GET  /api/file/:key
//	GET  /api/file/thumb/:key
//	GET  /api/file-info/:key
//	GET  /api/health/{kv,db,mq,telegram}
//	GET  /api/scheduler/jobs
//	POST /api/scheduler/jobs/:name/run
func New(cfg *configs.AppConfig, mgr *storage.Manager, sched *scheduler.Scheduler) *gin.Engine {
	rule.Init()

	engine := gin.New()
	engine.MaxMultipartMemory = 8 << 20

	engine.Use(
		middleware.RequestIDMiddleware(),
		middleware.CORSMiddleware(APIPrefix),
		middleware.GinLoggerMiddleware(),
		gin.RecoveryWithWriter(gin.DefaultErrorWriter),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(mgr),
		middleware.SchedulerMiddleware(sched),
	)

	api := engine.Group(APIPrefix,
		middleware.RateLimitMiddleware(cfg.RateLimit),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{FilePrefix})),
	)

	RegisterMediaRoutes(api, cfg)
	RegisterHealthCheckRoute(api)
	RegisterSchedulerRoutes(api)

	metrics.Mount(cfg.Metrics, engine)
	RegisterSwaggerRoute(engine, cfg.Server)

	return engine
}
