package handler

import (
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// EarningsHandler 时长计费与余额
type EarningsHandler struct {
	earningsSvc service.EarningsService
}

func NewEarningsHandler(earningsSvc service.EarningsService) *EarningsHandler {
	return &EarningsHandler{earningsSvc: earningsSvc}
}

// UpdateDuration 上报会话时长，每个会话只入账一次
// POST /earnings/update-duration
// 请求体: request.DurationReportRequest
// 响应: respond.DurationReportRespond
func (h *EarningsHandler) UpdateDuration(c *gin.Context) {
	var req request.DurationReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userId, _ := currentUser(c)
	data, err := h.earningsSvc.ReportDuration(c.Request.Context(), userId, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Balance 当前余额与累计收益
// GET /user/balance
func (h *EarningsHandler) Balance(c *gin.Context) {
	userId, _ := currentUser(c)
	data, err := h.earningsSvc.Balance(c.Request.Context(), userId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
