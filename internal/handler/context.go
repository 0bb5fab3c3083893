package handler

import (
	"pair_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// currentUser 取 JWTAuth 写入上下文的用户 ID 与角色
func currentUser(c *gin.Context) (userId, role string) {
	return c.GetString(middleware.CtxUserID), c.GetString(middleware.CtxRole)
}
