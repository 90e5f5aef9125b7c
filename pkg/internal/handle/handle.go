// Package handle 提供 HTTP 请求处理器，只负责请求解析与响应包装，业务逻辑在 service 包.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/moments/pkg/internal/service"
	"github.com/yeisme/moments/pkg/internal/types"
	"github.com/yeisme/moments/pkg/log"
	"github.com/yeisme/moments/pkg/middleware"
)

// statusOf 把 MediaError 的类别映射为 HTTP 状态码.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError 以 {success:false,message,error} 响应，error 优先使用上游原始负载.
func writeError(c *gin.Context, err error) {
	me := service.AsMediaError(err)
	status := statusOf(me)

	l := log.Logger()
	ev := l.Warn()

	if status >= http.StatusInternalServerError {
		ev = l.Error()
	}

	ev.Err(err).
		Str("request_id", middleware.RequestID(c)).
		Str("path", c.Request.URL.Path).
		Int("status", status).
		Msg(me.Message)

	// 5xx 的底层错误只写日志
	detail := me.Detail
	if detail == nil {
		detail = me.Message
		if status < http.StatusInternalServerError {
			detail = me.Error()
		}
	}

	c.JSON(status, types.ErrorResponse{Success: false, Message: me.Message, Error: detail})
}

// fail 直接以指定状态码响应，用于服务层之外的请求错误.
func fail(c *gin.Context, status int, message string, err error) {
	resp := types.ErrorResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}

	c.JSON(status, resp)
}
