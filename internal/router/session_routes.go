package router

import "github.com/gin-gonic/gin"

// RegisterSessionRoutes 会话生命周期
func (rt *Router) RegisterSessionRoutes(rg *gin.RouterGroup) {
	sessionGroup := rg.Group("/session")
	{
		sessionGroup.POST("/next", rt.handlers.Session.Next)
		sessionGroup.POST("/leave", rt.handlers.Session.Leave)
		sessionGroup.GET("/:id", rt.handlers.Session.Get)
		sessionGroup.GET("/:id/events", rt.handlers.Session.Events)
	}
}

// RegisterMatchRoutes 随机配对
func (rt *Router) RegisterMatchRoutes(rg *gin.RouterGroup) {
	matchGroup := rg.Group("/match")
	{
		matchGroup.POST("/search", rt.handlers.Match.Search)
		matchGroup.POST("/cancel", rt.handlers.Match.Cancel)
	}
}
