package handler

import (
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler 聊天
type ChatHandler struct {
	chatSvc service.ChatService
}

func NewChatHandler(chatSvc service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// Messages 频道消息，按时间升序
// GET /chat/messages/:roomScope
// 响应: []respond.MessageItem
func (h *ChatHandler) Messages(c *gin.Context) {
	userId, _ := currentUser(c)
	data, err := h.chatSvc.Messages(c.Request.Context(), userId, c.Param("roomScope"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// SendMessage 发送文本或表情
// POST /chat/send-message
// 请求体: request.SendMessageRequest
// 响应: respond.MessageItem
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userId, _ := currentUser(c)
	data, err := h.chatSvc.Send(c.Request.Context(), userId, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Conversations 会话列表
// GET /chat/conversations
// 响应: []respond.ConversationItem
func (h *ChatHandler) Conversations(c *gin.Context) {
	userId, _ := currentUser(c)
	data, err := h.chatSvc.Conversations(c.Request.Context(), userId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// MarkRead 标记已读
// POST /chat/mark-read
// 请求体: request.MarkReadRequest
func (h *ChatHandler) MarkRead(c *gin.Context) {
	var req request.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userId, _ := currentUser(c)
	data, err := h.chatSvc.MarkRead(c.Request.Context(), userId, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
