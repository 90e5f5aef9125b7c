package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/moments/pkg/context"
	"github.com/yeisme/moments/pkg/internal/types"
)

const timeout = 2 * time.Second

// healthProbeKey KV 健康检查探测的键，不要求存在.
const healthProbeKey = "__health__"

func healthy(c *gin.Context, component string) {
	c.JSON(http.StatusOK, types.HealthResponse{Component: component, Status: "ok"})
}

func unhealthy(c *gin.Context, component, detail string) {
	c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: component, Status: "unhealthy", Detail: detail})
}

// HealthKV 媒体记录所在 KV 的健康检查.
//
//	@Summary		kv 健康检查
//	@Tags			健康检查
//	@Produce		json
//	@Success		200	{object}	types.HealthResponse
//	@Failure		503	{object}	types.HealthResponse
//	@Router			/api/health/kv [get]
func HealthKV(c *gin.Context) {
	kvc := ctxPkg.GetKVClient(c.Request.Context())
	if kvc == nil || kvc.KVStore == nil {
		unhealthy(c, "kv", "kv client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if _, err := kvc.Exists(ctx, healthProbeKey); err != nil {
		unhealthy(c, "kv", err.Error())
		return
	}

	healthy(c, "kv")
}

// HealthDB 台账数据库健康检查.
//
//	@Summary		db 健康检查
//	@Tags			健康检查
//	@Produce		json
//	@Success		200	{object}	types.HealthResponse
//	@Failure		503	{object}	types.HealthResponse
//	@Router			/api/health/db [get]
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil {
		unhealthy(c, "db", "db not enabled")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := dbc.Ping(ctx); err != nil {
		unhealthy(c, "db", err.Error())
		return
	}

	healthy(c, "db")
}

// HealthMQ 消息队列健康检查.
//
//	@Summary		mq 健康检查
//	@Tags			健康检查
//	@Produce		json
//	@Success		200	{object}	types.HealthResponse
//	@Failure		503	{object}	types.HealthResponse
//	@Router			/api/health/mq [get]
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil { // publisher 与 subscriber 初始化在 New 中, 判空即可
		unhealthy(c, "mq", "events not enabled")
		return
	}

	healthy(c, "mq")
}

// HealthTelegram 通过 getMe 检查 Bot API 上游与 token.
//
//	@Summary		telegram 健康检查
//	@Tags			健康检查
//	@Produce		json
//	@Success		200	{object}	types.HealthResponse
//	@Failure		503	{object}	types.HealthResponse
//	@Router			/api/health/telegram [get]
func HealthTelegram(c *gin.Context) {
	blob := ctxPkg.GetBlobClient(c.Request.Context())
	if blob == nil {
		unhealthy(c, "telegram", "telegram client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if _, err := blob.GetMe(ctx); err != nil {
		unhealthy(c, "telegram", err.Error())
		return
	}

	healthy(c, "telegram")
}
