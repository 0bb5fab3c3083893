package request

// GiftRequestRequest 主播向客户索要礼物
// 使用位置:
//   - internal/handler/gift_handler.go: Request
//   - internal/agent/gift: Protocol.Request
type GiftRequestRequest struct {
	SessionId     string `json:"sessionId" binding:"required,max=40"`
	GiftId        string `json:"giftId" binding:"required,max=40"`
	RecipientId   string `json:"recipientId" binding:"required,max=40"`
	Message       string `json:"message" binding:"max=255"`
	SecurityToken string `json:"securityToken" binding:"required,max=512"`
}

// GiftAcceptRequest 客户接受礼物请求，令牌原样带回
type GiftAcceptRequest struct {
	SecurityToken string `json:"securityToken" binding:"required,max=512"`
}

// GiftRejectRequest 客户拒绝礼物请求
type GiftRejectRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// GiftSendRequest 客户直接送礼，不经过请求环节
type GiftSendRequest struct {
	SessionId   string `json:"sessionId" binding:"required,max=40"`
	GiftId      string `json:"giftId" binding:"required,max=40"`
	RecipientId string `json:"recipientId" binding:"required,max=40"`
}

// PendingGiftQuery 待处理礼物请求查询，SessionId 为空时返回全部
type PendingGiftQuery struct {
	SessionId string `form:"sessionId" binding:"max=40"`
}
