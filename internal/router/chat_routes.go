package router

import "github.com/gin-gonic/gin"

// RegisterChatRoutes 聊天
func (rt *Router) RegisterChatRoutes(rg *gin.RouterGroup) {
	chatGroup := rg.Group("/chat")
	{
		chatGroup.GET("/messages/:roomScope", rt.handlers.Chat.Messages)
		chatGroup.POST("/send-message", rt.handlers.Chat.SendMessage)
		chatGroup.GET("/conversations", rt.handlers.Chat.Conversations)
		chatGroup.POST("/mark-read", rt.handlers.Chat.MarkRead)
	}
}
