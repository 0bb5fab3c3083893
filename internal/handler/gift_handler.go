package handler

import (
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// GiftHandler 礼物目录与交易
type GiftHandler struct {
	giftSvc service.GiftService
}

func NewGiftHandler(giftSvc service.GiftService) *GiftHandler {
	return &GiftHandler{giftSvc: giftSvc}
}

// Available 礼物目录
// GET /gifts/available
func (h *GiftHandler) Available(c *gin.Context) {
	data, err := h.giftSvc.Catalog(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Request 主播索要礼物
// POST /gifts/request
// 请求体: request.GiftRequestRequest
// 响应: respond.GiftRequestRespond
func (h *GiftHandler) Request(c *gin.Context) {
	var req request.GiftRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userId, _ := currentUser(c)
	data, err := h.giftSvc.Request(c.Request.Context(), userId, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Accept 客户接受礼物请求并结算
// POST /gifts/accept/:id
// 请求体: request.GiftAcceptRequest
// 响应: respond.GiftSettleRespond
func (h *GiftHandler) Accept(c *gin.Context) {
	var req request.GiftAcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userId, _ := currentUser(c)
	data, err := h.giftSvc.Accept(c.Request.Context(), userId, c.Param("id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Reject 客户拒绝礼物请求
// POST /gifts/reject/:id
// 请求体可为空
func (h *GiftHandler) Reject(c *gin.Context) {
	var req request.GiftRejectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleParamError(c, err)
			return
		}
	}
	userId, _ := currentUser(c)
	data, err := h.giftSvc.Reject(c.Request.Context(), userId, c.Param("id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Send 客户直接送礼
// POST /gifts/send
// 请求体: request.GiftSendRequest
func (h *GiftHandler) Send(c *gin.Context) {
	var req request.GiftSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userId, _ := currentUser(c)
	data, err := h.giftSvc.Send(c.Request.Context(), userId, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Pending 发给当前用户的待处理礼物请求
// GET /gifts/pending?sessionId=xxx
// 响应: []respond.PendingGiftItem
func (h *GiftHandler) Pending(c *gin.Context) {
	var req request.PendingGiftQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userId, _ := currentUser(c)
	data, err := h.giftSvc.Pending(c.Request.Context(), userId, req.SessionId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
