package websocket

import (
	"context"

	"pair_chat_server/internal/dto/respond"
)

// NotificationWaiter 阻塞等待用户的下一条通知
// 由 NotifyService 实现，解耦 websocket 包对 service 包的依赖
type NotificationWaiter interface {
	Wait(ctx context.Context, userId string) (*respond.StatusUpdateRespond, error)
}
