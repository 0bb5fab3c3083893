// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"pair_chat_server/internal/handler"
	"pair_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器，持有 Handler 聚合
type Router struct {
	handlers *handler.Handlers
}

func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// 除健康检查外都需要认证，令牌由外部认证服务签发
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { handler.HandleSuccess(c, "ok") })

	auth := r.Group("/", middleware.JWTAuth())
	rt.RegisterPresenceRoutes(auth)
	rt.RegisterStatusRoutes(auth)
	rt.RegisterSessionRoutes(auth)
	rt.RegisterMatchRoutes(auth)
	rt.RegisterEarningsRoutes(auth)
	rt.RegisterGiftRoutes(auth)
	rt.RegisterChatRoutes(auth)
	rt.RegisterRelationRoutes(auth)
}
