// Package middleware 提供 gin 中间件：请求 ID、日志、指标、追踪、跨域、限流、熔断与缓存头.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeisme/moments/pkg/internal/types"
)

// RequestIDHeader 请求 ID 头.
const RequestIDHeader = "X-Request-ID"

// requestIDKey gin 上下文中保存请求 ID 的键.
const requestIDKey = "request_id"

// RequestIDMiddleware 沿用调用方传入的请求 ID，没有时生成一个.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestID 返回当前请求 ID.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// abortJSON 以统一的失败包装中止请求.
func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, types.ErrorResponse{Success: false, Message: message, Error: http.StatusText(status)})
}
