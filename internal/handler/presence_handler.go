package handler

import (
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// PresenceHandler 心跳与在线列表
type PresenceHandler struct {
	presenceSvc service.PresenceService
}

func NewPresenceHandler(presenceSvc service.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceSvc: presenceSvc}
}

// Heartbeat 上报心跳
// POST /heartbeat
// 请求体: request.HeartbeatRequest
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	var req request.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userId, role := currentUser(c)
	if err := h.presenceSvc.Heartbeat(c.Request.Context(), userId, role, req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Online 在线用户列表
// GET /presence/online?role=model
// 响应: []respond.OnlineUserItem
func (h *PresenceHandler) Online(c *gin.Context) {
	var req request.OnlineQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.presenceSvc.Online(c.Request.Context(), req.Role)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
