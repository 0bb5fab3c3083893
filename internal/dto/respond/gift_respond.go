package respond

// GiftItem 礼物目录项
type GiftItem struct {
	GiftId   string `json:"giftId"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageRef string `json:"imageRef"`
}

// GiftRequestRespond 发起礼物请求的结果
// ChatMessage 为主频道上的 gift_request 消息，请求方据此乐观插入
type GiftRequestRespond struct {
	Success     bool         `json:"success"`
	RequestId   string       `json:"requestId"`
	ChatMessage *MessageItem `json:"chatMessage,omitempty"`
}

// GiftSettleRespond 接受请求或直接送礼完成结算后的结果
// Balance 为调用方结算后的余额
type GiftSettleRespond struct {
	Success          bool          `json:"success"`
	TransactionId    string        `json:"transactionId"`
	RequestId        string        `json:"requestId,omitempty"`
	Balance          int64         `json:"balance"`
	SenderBalance    int64         `json:"senderBalance"`
	RecipientBalance int64         `json:"recipientBalance"`
	Messages         []MessageItem `json:"messages"`
}

// GiftRejectRespond 拒绝结果
type GiftRejectRespond struct {
	Success   bool   `json:"success"`
	RequestId string `json:"requestId"`
}

// PendingGiftItem 待处理的礼物请求
type PendingGiftItem struct {
	RequestId     string   `json:"requestId"`
	SessionId     string   `json:"sessionId"`
	RequesterId   string   `json:"requesterId"`
	Gift          GiftItem `json:"gift"`
	Message       string   `json:"message,omitempty"`
	SecurityToken string   `json:"securityToken"`
	CreatedAt     int64    `json:"createdAt"`
	ExpiresAt     int64    `json:"expiresAt"`
}
