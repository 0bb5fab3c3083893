package request

// DurationReportRequest 会话时长上报
// 使用位置:
//   - internal/handler/earnings_handler.go: UpdateDuration
//   - internal/agent/session: Reporter
type DurationReportRequest struct {
	SessionId string `json:"sessionId" binding:"required,max=40"`
	Seconds   int64  `json:"seconds" binding:"required,min=1"`
}
