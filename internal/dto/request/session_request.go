package request

// SessionEndRequest 跳过 / 离开当前会话
// 使用位置:
//   - internal/handler/session_handler.go: Next, Leave
type SessionEndRequest struct {
	SessionId string `json:"sessionId" binding:"required,max=40"`
}
