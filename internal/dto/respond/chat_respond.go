package respond

import "encoding/json"

// MessageItem 一条聊天消息
// Id 为雪花 ID 的十进制字符串，CreatedAt 为 unix 毫秒
type MessageItem struct {
	Id        string          `json:"id"`
	RoomScope string          `json:"roomScope"`
	SenderId  string          `json:"senderId"`
	Type      string          `json:"type"`
	Body      string          `json:"body"`
	ExtraData json.RawMessage `json:"extraData,omitempty"`
	CreatedAt int64           `json:"createdAt"`
}

// ConversationItem 会话列表项
// UnreadCount 为空表示服务端没有给出计数，由客户端按粗略规则估算
type ConversationItem struct {
	RoomName    string       `json:"roomName"`
	PartnerId   string       `json:"partnerId"`
	LastMessage *MessageItem `json:"lastMessage,omitempty"`
	UnreadCount *int64       `json:"unreadCount,omitempty"`
	LastSeenAt  int64        `json:"lastSeenAt"`
}

// MarkReadRespond 标记已读结果
type MarkReadRespond struct {
	RoomName   string `json:"roomName"`
	LastSeenAt int64  `json:"lastSeenAt"`
}
