package request

import "encoding/json"

// SendMessageRequest 发送聊天消息
// 用户只能发送 text 和 emoji，礼物类消息由服务端生成
// 使用位置:
//   - internal/handler/chat_handler.go: SendMessage
//   - internal/agent/conversation: Store.Send
type SendMessageRequest struct {
	RoomScope string          `json:"roomScope" binding:"required,max=48"`
	Body      string          `json:"body"`
	Type      string          `json:"type" binding:"required,oneof=text emoji"`
	ExtraData json.RawMessage `json:"extraData,omitempty"`
}

// MarkReadRequest 标记会话已读
type MarkReadRequest struct {
	RoomScope string `json:"roomScope" binding:"required,max=48"`
}
