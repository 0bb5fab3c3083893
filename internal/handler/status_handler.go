package handler

import (
	"pair_chat_server/internal/gateway/websocket"
	"pair_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// StatusHandler 通知信箱
type StatusHandler struct {
	notifySvc service.NotifyService
	stream    *websocket.Manager
}

func NewStatusHandler(notifySvc service.NotifyService, stream *websocket.Manager) *StatusHandler {
	return &StatusHandler{notifySvc: notifySvc, stream: stream}
}

// Updates 取出一条待消费通知，取出即消费
// GET /status/updates
// 响应: respond.StatusUpdateRespond
func (h *StatusHandler) Updates(c *gin.Context) {
	userId, _ := currentUser(c)
	data, err := h.notifySvc.Poll(c.Request.Context(), userId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Stream websocket 推送通道
// GET /status/stream?token=xxx
func (h *StatusHandler) Stream(c *gin.Context) {
	userId, _ := currentUser(c)
	h.stream.Serve(c, userId)
}
