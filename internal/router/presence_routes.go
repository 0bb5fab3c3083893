package router

import "github.com/gin-gonic/gin"

// RegisterPresenceRoutes 心跳与在线列表
func (rt *Router) RegisterPresenceRoutes(rg *gin.RouterGroup) {
	rg.POST("/heartbeat", rt.handlers.Presence.Heartbeat)
	rg.GET("/presence/online", rt.handlers.Presence.Online)
}

// RegisterStatusRoutes 通知信箱
func (rt *Router) RegisterStatusRoutes(rg *gin.RouterGroup) {
	statusGroup := rg.Group("/status")
	{
		statusGroup.GET("/updates", rt.handlers.Status.Updates) // 轮询
		statusGroup.GET("/stream", rt.handlers.Status.Stream)   // websocket 推送
	}
}
