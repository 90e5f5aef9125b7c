package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheControlMiddleware 为 prefix 下的成功响应设置公共缓存头，交给前置缓存层（CDN、反向代理）使用.
// 媒体记录创建后不再修改，同一个键的字节不会变化.
func CacheControlMiddleware(prefix string, maxAge int) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", maxAge)

	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, prefix) || maxAge <= 0 {
			c.Next()
			return
		}

		c.Writer = &cacheControlWriter{ResponseWriter: c.Writer, value: value}
		c.Next()
	}
}

// cacheControlWriter 在写响应头时按状态码决定是否附加缓存头，失败响应不缓存.
type cacheControlWriter struct {
	gin.ResponseWriter

	value string
}

func (w *cacheControlWriter) WriteHeader(code int) {
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		w.Header().Set("Cache-Control", w.value)
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}

	w.ResponseWriter.WriteHeader(code)
}
