// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层调用
package service

import (
	"context"

	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/model"
)

// PresenceService 心跳与在线列表
type PresenceService interface {
	// Heartbeat 覆盖用户上一次心跳，过期后自然下线
	Heartbeat(ctx context.Context, userId, role string, req request.HeartbeatRequest) error
	// Online 在线用户，role 为空时不过滤
	Online(ctx context.Context, role string) ([]respond.OnlineUserItem, error)
	IsOnline(ctx context.Context, userId string) bool
	Prune(ctx context.Context)
}

// NotifyService 单槽信箱
type NotifyService interface {
	// Publish 投递通知；同一会话同类型已有待消费通知时忽略，旧会话的通知被替换
	Publish(ctx context.Context, target, kind, sessionId string, data any) error
	// Poll 取出即消费，没有时 HasNotification 为 false
	Poll(ctx context.Context, userId string) (*respond.StatusUpdateRespond, error)
	// Wait 阻塞直到有通知或 ctx 结束
	Wait(ctx context.Context, userId string) (*respond.StatusUpdateRespond, error)
}

// RoomService 配对会话生命周期
type RoomService interface {
	Create(ctx context.Context, modelId, clientId string) (*model.PairSession, error)
	Get(ctx context.Context, userId, sessionId string) (*respond.SessionRespond, error)
	Events(ctx context.Context, userId, sessionId string) ([]model.SessionEvent, error)
	// Next 跳过，对方收到 partner_went_next
	Next(ctx context.Context, userId, sessionId string) (*respond.EndSessionRespond, error)
	// Leave 离开，对方收到 partner_left_session
	Leave(ctx context.Context, userId, sessionId string) (*respond.EndSessionRespond, error)
}

// MatchService 随机配对
type MatchService interface {
	Search(ctx context.Context, userId, role string) (*respond.MatchRespond, error)
	Cancel(ctx context.Context, userId, role string) error
}

// EarningsService 时长入账与余额
type EarningsService interface {
	ReportDuration(ctx context.Context, userId string, req request.DurationReportRequest) (*respond.DurationReportRespond, error)
	Balance(ctx context.Context, userId string) (*respond.BalanceRespond, error)
}

// GiftService 礼物目录与交易
type GiftService interface {
	Catalog(ctx context.Context) ([]respond.GiftItem, error)
	SeedCatalog(ctx context.Context) error
	Request(ctx context.Context, userId string, req request.GiftRequestRequest) (*respond.GiftRequestRespond, error)
	Accept(ctx context.Context, userId, requestId string, req request.GiftAcceptRequest) (*respond.GiftSettleRespond, error)
	Reject(ctx context.Context, userId, requestId string, req request.GiftRejectRequest) (*respond.GiftRejectRespond, error)
	Send(ctx context.Context, userId string, req request.GiftSendRequest) (*respond.GiftSettleRespond, error)
	Pending(ctx context.Context, userId, sessionId string) ([]respond.PendingGiftItem, error)
}

// ChatService 聊天消息与会话列表
type ChatService interface {
	Messages(ctx context.Context, userId, scope string) ([]respond.MessageItem, error)
	Send(ctx context.Context, userId string, req request.SendMessageRequest) (*respond.MessageItem, error)
	Conversations(ctx context.Context, userId string) ([]respond.ConversationItem, error)
	MarkRead(ctx context.Context, userId string, req request.MarkReadRequest) (*respond.MarkReadRespond, error)
}

// RelationService 屏蔽关系
type RelationService interface {
	Block(ctx context.Context, userId, targetId string) error
	Unblock(ctx context.Context, userId, targetId string) error
	Blocked(ctx context.Context, userId string) ([]string, error)
}
