package handler

import (
	"pair_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// MatchHandler 随机配对
type MatchHandler struct {
	matchSvc service.MatchService
}

func NewMatchHandler(matchSvc service.MatchService) *MatchHandler {
	return &MatchHandler{matchSvc: matchSvc}
}

// Search 进入匹配队列或取回匹配结果，客户端定时轮询
// POST /match/search
// 响应: respond.MatchRespond
func (h *MatchHandler) Search(c *gin.Context) {
	userId, role := currentUser(c)
	data, err := h.matchSvc.Search(c.Request.Context(), userId, role)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Cancel 退出匹配队列
// POST /match/cancel
func (h *MatchHandler) Cancel(c *gin.Context) {
	userId, role := currentUser(c)
	if err := h.matchSvc.Cancel(c.Request.Context(), userId, role); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
