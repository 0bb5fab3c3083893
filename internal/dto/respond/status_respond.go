package respond

import "encoding/json"

// NotificationItem 信箱中取出的一条通知
type NotificationItem struct {
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt int64           `json:"createdAt"`
}

// StatusUpdateRespond 信箱轮询结果，没有通知时 Notification 为空
// 使用位置:
//   - internal/handler/status_handler.go: Updates, Stream
//   - internal/agent/mailbox: Poller
type StatusUpdateRespond struct {
	HasNotification bool              `json:"hasNotification"`
	Notification    *NotificationItem `json:"notification,omitempty"`
}

// PartnerEventData partner_went_next / partner_left_session 的附加数据
type PartnerEventData struct {
	SessionId string `json:"sessionId"`
	EndedBy   string `json:"endedBy"`
	Reason    string `json:"reason,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
}
