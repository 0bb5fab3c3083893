package request

// HeartbeatRequest 心跳请求
// 使用位置:
//   - internal/handler/presence_handler.go: Heartbeat
//   - internal/agent/heartbeat: 定时上报
type HeartbeatRequest struct {
	ActivityKind string `json:"activityKind" binding:"required,oneof=browsing videochat"`
	SessionId    string `json:"sessionId" binding:"max=40"`
}

// OnlineQuery 在线列表查询
type OnlineQuery struct {
	Role string `form:"role" binding:"omitempty,oneof=model client"`
}
