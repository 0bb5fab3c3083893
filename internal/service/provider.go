// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"pair_chat_server/internal/config"
	"pair_chat_server/internal/dao/mysql/repository"
	myredis "pair_chat_server/internal/dao/redis"
	"pair_chat_server/internal/infrastructure/mq"
	"pair_chat_server/internal/service/chat"
	"pair_chat_server/internal/service/earnings"
	"pair_chat_server/internal/service/gift"
	"pair_chat_server/internal/service/match"
	"pair_chat_server/internal/service/notify"
	"pair_chat_server/internal/service/presence"
	"pair_chat_server/internal/service/relation"
	"pair_chat_server/internal/service/room"
)

// Stores Redis 侧的各类存储
type Stores struct {
	Cache    myredis.AsyncCacheService
	Mailbox  myredis.MailboxStore
	Presence myredis.PresenceStore
	Match    myredis.MatchQueue
}

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过此结构访问各个 Service
type Services struct {
	Presence PresenceService
	Notify   NotifyService
	Room     RoomService
	Match    MatchService
	Earnings EarningsService
	Gift     GiftService
	Chat     ChatService
	Relation RelationService
}

// NewServices 创建并注入所有 Service 实例
// 依赖注入流程：
//  1. 接收 Repository 聚合、Redis 存储和事件发布者
//  2. 按依赖顺序创建各个 Service
//  3. 返回 Services 聚合
func NewServices(cfg *config.Config, repos *repository.Repositories, stores Stores, events mq.Publisher) *Services {
	presenceSvc := presence.NewPresenceService(stores.Presence)
	notifySvc := notify.NewNotifyService(stores.Mailbox)
	roomSvc := room.NewRoomService(repos, notifySvc, events)

	return &Services{
		Presence: presenceSvc,
		Notify:   notifySvc,
		Room:     roomSvc,
		Match:    match.NewMatchService(repos, stores.Match, roomSvc, presenceSvc),
		Earnings: earnings.NewEarningsService(repos, events, cfg.SessionConfig),
		Gift:     gift.NewGiftService(repos, stores.Cache, events, cfg.GiftConfig),
		Chat:     chat.NewChatService(repos),
		Relation: relation.NewRelationService(repos),
	}
}
