package handler

import (
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// RelationHandler 屏蔽关系
type RelationHandler struct {
	relationSvc service.RelationService
}

func NewRelationHandler(relationSvc service.RelationService) *RelationHandler {
	return &RelationHandler{relationSvc: relationSvc}
}

// Block 屏蔽用户
// POST /user/block
// 请求体: request.BlockRequest
func (h *RelationHandler) Block(c *gin.Context) {
	var req request.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userId, _ := currentUser(c)
	if err := h.relationSvc.Block(c.Request.Context(), userId, req.TargetId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Unblock 取消屏蔽
// POST /user/unblock
func (h *RelationHandler) Unblock(c *gin.Context) {
	var req request.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userId, _ := currentUser(c)
	if err := h.relationSvc.Unblock(c.Request.Context(), userId, req.TargetId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Blocked 屏蔽列表
// GET /user/blocked
// 响应: []string
func (h *RelationHandler) Blocked(c *gin.Context) {
	userId, _ := currentUser(c)
	data, err := h.relationSvc.Blocked(c.Request.Context(), userId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
