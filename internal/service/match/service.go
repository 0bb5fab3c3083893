// Package match 主播与客户的随机配对
package match

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pair_chat_server/internal/dao/mysql/repository"
	myredis "pair_chat_server/internal/dao/redis"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/model"
	"pair_chat_server/internal/service/relation"
	"pair_chat_server/internal/service/room"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
)

// 弹出的候选已离线时最多再取几次
const maxStaleCandidates = 3

// RoomCreator 匹配成功后开房
type RoomCreator interface {
	Create(ctx context.Context, modelId, clientId string) (*model.PairSession, error)
}

// OnlineChecker 判断候选是否仍在线
type OnlineChecker interface {
	IsOnline(ctx context.Context, userId string) bool
}

type matchService struct {
	repos    *repository.Repositories
	queue    myredis.MatchQueue
	rooms    RoomCreator
	presence OnlineChecker
	now      func() time.Time
}

func NewMatchService(repos *repository.Repositories, queue myredis.MatchQueue, rooms RoomCreator, presence OnlineChecker) *matchService {
	return &matchService{repos: repos, queue: queue, rooms: rooms, presence: presence, now: time.Now}
}

func opposite(role string) (string, error) {
	switch role {
	case constants.RoleModel:
		return constants.RoleClient, nil
	case constants.RoleClient:
		return constants.RoleModel, nil
	}
	return "", errorx.New(errorx.CodeForbidden, "未知角色")
}

// Search 一次匹配轮询：先取等待期间别人为自己开好的房，再尝试配对，配不上则排队
func (s *matchService) Search(ctx context.Context, userId, role string) (*respond.MatchRespond, error) {
	other, err := opposite(role)
	if err != nil {
		return nil, err
	}

	roomName, err := s.queue.TakeResult(ctx, userId)
	if err != nil {
		zap.L().Error("读取匹配结果失败", zap.String("user_id", userId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if roomName != "" {
		sess, err := room.LoadParticipant(s.repos.WithContext(ctx), roomName, userId)
		if err != nil {
			return nil, err
		}
		if sess.State == model.SessionStateActive {
			return &respond.MatchRespond{Matched: true, Session: room.ToRespond(sess, userId)}, nil
		}
		// 对方在我们取结果之前就离开了，继续排队
	}

	for i := 0; i < maxStaleCandidates; i++ {
		partner, err := s.queue.PopOrEnqueue(ctx, userId, role, other, s.now())
		if err != nil {
			zap.L().Error("匹配队列操作失败", zap.String("user_id", userId), zap.Error(err))
			return nil, errorx.ErrServerBusy
		}
		if partner == "" {
			return &respond.MatchRespond{Matched: false}, nil
		}
		if partner == userId || !s.presence.IsOnline(ctx, partner) {
			zap.L().Info("丢弃离线候选", zap.String("user_id", userId), zap.String("candidate", partner))
			continue
		}
		// 被屏蔽的候选已出队，它下一次轮询会重新排队
		if err := relation.Check(s.repos.WithContext(ctx), userId, partner); err != nil {
			if errorx.GetCode(err) != errorx.CodeBlocked {
				return nil, err
			}
			zap.L().Info("跳过屏蔽关系候选", zap.String("user_id", userId), zap.String("candidate", partner))
			continue
		}

		modelId, clientId := userId, partner
		if role == constants.RoleClient {
			modelId, clientId = partner, userId
		}
		sess, err := s.rooms.Create(ctx, modelId, clientId)
		if err != nil {
			return nil, err
		}
		if err := s.queue.SetResult(ctx, partner, sess.Uuid); err != nil {
			zap.L().Error("保存匹配结果失败", zap.String("partner", partner), zap.Error(err))
			return nil, errorx.ErrServerBusy
		}
		return &respond.MatchRespond{Matched: true, Session: room.ToRespond(sess, userId)}, nil
	}
	return &respond.MatchRespond{Matched: false}, nil
}

// Cancel 退出等待队列
func (s *matchService) Cancel(ctx context.Context, userId, role string) error {
	if _, err := opposite(role); err != nil {
		return err
	}
	if err := s.queue.Cancel(ctx, userId, role); err != nil {
		zap.L().Error("退出匹配失败", zap.String("user_id", userId), zap.Error(err))
		return errorx.ErrServerBusy
	}
	return nil
}
