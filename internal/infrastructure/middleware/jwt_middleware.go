package middleware

import (
	"net/http"
	"strings"

	"pair_chat_server/pkg/errorx"
	"pair_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

// 上下文中的用户信息键
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// JWTAuth JWT 认证中间件
// 令牌由外部认证服务签发；websocket 握手无法自定义 Header，允许从 query 参数 token 读取
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				abortUnauthorized(c, "Token 格式错误，请使用 Bearer Token")
				return
			}
			raw = parts[1]
		}
		if raw == "" {
			abortUnauthorized(c, "请先登录")
			return
		}

		claims, err := jwt.ParseToken(raw)
		if err != nil {
			abortUnauthorized(c, "Token 已过期或无效，请重新登录")
			return
		}
		if claims.Subject != "access_token" {
			abortUnauthorized(c, "请使用 Access Token 访问此接口")
			return
		}
		if claims.UserID == "" || claims.Role == "" {
			abortUnauthorized(c, "Token 缺少用户信息")
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code": errorx.CodeUnauthorized,
		"msg":  msg,
		"kind": errorx.KindOf(errorx.CodeUnauthorized),
	})
}
