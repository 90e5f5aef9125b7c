package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/moments/pkg/context"
	"github.com/yeisme/moments/pkg/internal/storage"
)

// StorageMiddleware 把存储管理器注入请求上下文，服务层从中取依赖.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithStorageManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
