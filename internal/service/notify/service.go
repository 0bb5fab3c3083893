// Package notify 会话伙伴之间的单槽通知投递
package notify

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	myredis "pair_chat_server/internal/dao/redis"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/pkg/errorx"
)

type notifyService struct {
	mailbox myredis.MailboxStore
}

// NewNotifyService 构造函数
func NewNotifyService(mailbox myredis.MailboxStore) *notifyService {
	return &notifyService{mailbox: mailbox}
}

// Publish 给 target 投递一条 sessionId 会话的通知
// 同一会话同类型已有待消费通知时忽略，其他会话遗留的旧通知被替换
func (s *notifyService) Publish(ctx context.Context, target, kind, sessionId string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "序列化通知数据")
	}
	ok, err := s.mailbox.Put(ctx, myredis.Notification{TargetUserId: target, Kind: kind, SessionId: sessionId, Data: raw})
	if err != nil {
		zap.L().Error("写入信箱失败", zap.String("target", target), zap.String("kind", kind), zap.Error(err))
		return err
	}
	if !ok {
		zap.L().Info("信箱已有同类通知，忽略", zap.String("target", target), zap.String("kind", kind), zap.String("session_id", sessionId))
	}
	return nil
}

// Poll 取出一条通知，取出即消费
func (s *notifyService) Poll(ctx context.Context, userId string) (*respond.StatusUpdateRespond, error) {
	n, err := s.mailbox.Take(ctx, userId)
	if err != nil {
		zap.L().Error("读取信箱失败", zap.String("user_id", userId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return toRespond(n), nil
}

// Wait 阻塞到有通知或 ctx 结束，供推送通道使用
// 先订阅再读取，订阅之前写入的通知也不会漏掉
func (s *notifyService) Wait(ctx context.Context, userId string) (*respond.StatusUpdateRespond, error) {
	signals, stop, err := s.mailbox.Signals(ctx, userId)
	if err != nil {
		return nil, err
	}
	defer stop()

	for {
		n, err := s.mailbox.Take(ctx, userId)
		if err != nil {
			return nil, err
		}
		if n != nil {
			return toRespond(n), nil
		}
		select {
		case <-ctx.Done():
			return &respond.StatusUpdateRespond{HasNotification: false}, ctx.Err()
		case _, ok := <-signals:
			if !ok {
				return &respond.StatusUpdateRespond{HasNotification: false}, nil
			}
		}
	}
}

func toRespond(n *myredis.Notification) *respond.StatusUpdateRespond {
	if n == nil {
		return &respond.StatusUpdateRespond{HasNotification: false}
	}
	return &respond.StatusUpdateRespond{
		HasNotification: true,
		Notification: &respond.NotificationItem{
			Kind:      n.Kind,
			Data:      n.Data,
			CreatedAt: n.CreatedAt,
		},
	}
}
