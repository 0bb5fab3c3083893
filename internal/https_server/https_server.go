// Package https_server 创建 Gin 引擎并配置中间件和路由
package https_server

import (
	"pair_chat_server/internal/config"
	"pair_chat_server/internal/handler"
	"pair_chat_server/internal/infrastructure/logger"
	"pair_chat_server/internal/infrastructure/middleware"
	"pair_chat_server/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Init 初始化 Gin 引擎
// 顺序：日志、panic 恢复、CORS、可选的 TLS 跳转、业务路由
func Init(handlers *handler.Handlers, cfg config.MainConfig) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// 由 Nginx 终止 TLS 时关闭
	if cfg.ForceTLS {
		engine.Use(middleware.TlsHandler(cfg.Host, cfg.Port))
	}

	rt := router.NewRouter(handlers)
	rt.RegisterRoutes(engine)

	return engine
}
