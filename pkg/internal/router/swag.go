package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/moments/docs"
	"github.com/yeisme/moments/pkg/configs"
)

// SwaggerPath Swagger UI 路由.
const SwaggerPath = "/swagger/*any"

// RegisterSwaggerRoute 调试模式下注册 Swagger 文档路由.
func RegisterSwaggerRoute(r *gin.Engine, cfg configs.ServerConfig) {
	if !cfg.Debug {
		return
	}

	docs.SwaggerInfo.Host = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	docs.SwaggerInfo.Version = "1.0.0"

	r.GET(SwaggerPath, ginSwagger.WrapHandler(swaggerFiles.Handler))
}
