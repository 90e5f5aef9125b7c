package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware 跨域中间件，只作用于 prefix 下的路径，允许任意来源.
// 需挂在引擎上而不是路由组上，预检请求没有对应路由，组中间件不会执行.
func CORSMiddleware(prefix string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = append(config.AllowHeaders, RequestIDHeader, "If-None-Match")
	config.ExposeHeaders = []string{RequestIDHeader, "ETag", "Content-Length", "Content-Type"}

	handler := cors.New(config)

	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, prefix) {
			c.Next()
			return
		}

		handler(c)
	}
}
