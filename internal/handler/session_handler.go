package handler

import (
	"context"
	"encoding/json"

	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionHandler 配对会话
type SessionHandler struct {
	roomSvc service.RoomService
}

func NewSessionHandler(roomSvc service.RoomService) *SessionHandler {
	return &SessionHandler{roomSvc: roomSvc}
}

// Next 跳过当前会话，对方收到 partner_went_next
// POST /session/next
// 请求体: request.SessionEndRequest
// 响应: respond.EndSessionRespond
func (h *SessionHandler) Next(c *gin.Context) {
	h.end(c, h.roomSvc.Next)
}

// Leave 离开当前会话，对方收到 partner_left_session
// POST /session/leave
func (h *SessionHandler) Leave(c *gin.Context) {
	h.end(c, h.roomSvc.Leave)
}

type endFunc func(ctx context.Context, userId, sessionId string) (*respond.EndSessionRespond, error)

func (h *SessionHandler) end(c *gin.Context, fn endFunc) {
	var req request.SessionEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userId, _ := currentUser(c)
	data, err := fn(c.Request.Context(), userId, req.SessionId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Get 会话详情
// GET /session/:id
// 响应: respond.SessionRespond
func (h *SessionHandler) Get(c *gin.Context) {
	userId, _ := currentUser(c)
	data, err := h.roomSvc.Get(c.Request.Context(), userId, c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Events 会话审计事件
// GET /session/:id/events
func (h *SessionHandler) Events(c *gin.Context) {
	userId, _ := currentUser(c)
	events, err := h.roomSvc.Events(c.Request.Context(), userId, c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	data := make([]respond.SessionEventItem, 0, len(events))
	for _, e := range events {
		data = append(data, respond.SessionEventItem{
			EventKey:   e.EventKey,
			ActorId:    e.ActorId,
			Payload:    json.RawMessage(e.Payload),
			OccurredAt: e.OccurredAt.UnixMilli(),
		})
	}
	HandleSuccess(c, data)
}
