package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/internal/handle"
	"github.com/yeisme/moments/pkg/middleware"
)

// RegisterMediaRoutes 注册上传与读取路由. 访问上游的路由共用按方向区分的熔断器.
func RegisterMediaRoutes(g *gin.RouterGroup, cfg *configs.AppConfig) {
	g.POST("/upload-file",
		middleware.UploadRateLimitMiddleware(cfg.RateLimit),
		middleware.CircuitBreakerMiddleware("telegram.upload", cfg.CircuitBreaker),
		handle.UploadFile,
	)

	fileRoutes := g.Group("/file",
		middleware.CacheControlMiddleware(FilePrefix, cfg.Media.CacheMaxAge),
		middleware.CircuitBreakerMiddleware("telegram.fetch", cfg.CircuitBreaker),
	)
	{
		fileRoutes.GET("/:key", handle.GetFile)
		fileRoutes.GET("/thumb/:key", handle.GetThumbnail)
	}

	g.GET("/file-info/:key", handle.GetFileInfo)
}
