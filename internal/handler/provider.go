// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
package handler

import (
	"pair_chat_server/internal/gateway/websocket"
	"pair_chat_server/internal/service"
)

// Handlers 聚合所有 Handler 实例
// Router 层通过此结构访问各个 Handler
type Handlers struct {
	Presence *PresenceHandler
	Status   *StatusHandler
	Session  *SessionHandler
	Match    *MatchHandler
	Earnings *EarningsHandler
	Gift     *GiftHandler
	Chat     *ChatHandler
	Relation *RelationHandler
}

// NewHandlers 创建并注入所有 Handler 实例
func NewHandlers(svc *service.Services, stream *websocket.Manager) *Handlers {
	return &Handlers{
		Presence: NewPresenceHandler(svc.Presence),
		Status:   NewStatusHandler(svc.Notify, stream),
		Session:  NewSessionHandler(svc.Room),
		Match:    NewMatchHandler(svc.Match),
		Earnings: NewEarningsHandler(svc.Earnings),
		Gift:     NewGiftHandler(svc.Gift),
		Chat:     NewChatHandler(svc.Chat),
		Relation: NewRelationHandler(svc.Relation),
	}
}
