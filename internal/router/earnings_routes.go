package router

import "github.com/gin-gonic/gin"

// RegisterEarningsRoutes 计费与余额
func (rt *Router) RegisterEarningsRoutes(rg *gin.RouterGroup) {
	rg.POST("/earnings/update-duration", rt.handlers.Earnings.UpdateDuration)
	rg.GET("/user/balance", rt.handlers.Earnings.Balance)
}

// RegisterRelationRoutes 屏蔽关系
func (rt *Router) RegisterRelationRoutes(rg *gin.RouterGroup) {
	userGroup := rg.Group("/user")
	{
		userGroup.POST("/block", rt.handlers.Relation.Block)
		userGroup.POST("/unblock", rt.handlers.Relation.Unblock)
		userGroup.GET("/blocked", rt.handlers.Relation.Blocked)
	}
}

// RegisterGiftRoutes 礼物
func (rt *Router) RegisterGiftRoutes(rg *gin.RouterGroup) {
	giftGroup := rg.Group("/gifts")
	{
		giftGroup.GET("/available", rt.handlers.Gift.Available)
		giftGroup.POST("/request", rt.handlers.Gift.Request)
		giftGroup.POST("/accept/:id", rt.handlers.Gift.Accept)
		giftGroup.POST("/reject/:id", rt.handlers.Gift.Reject)
		giftGroup.POST("/send", rt.handlers.Gift.Send)
		giftGroup.GET("/pending", rt.handlers.Gift.Pending)
	}
}
