// Package presence 心跳与在线列表
package presence

import (
	"context"
	"time"

	"go.uber.org/zap"

	myredis "pair_chat_server/internal/dao/redis"
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
)

type presenceService struct {
	store myredis.PresenceStore
	now   func() time.Time
}

func NewPresenceService(store myredis.PresenceStore) *presenceService {
	return &presenceService{store: store, now: time.Now}
}

// Heartbeat 覆盖该用户上一次心跳
func (s *presenceService) Heartbeat(ctx context.Context, userId, role string, req request.HeartbeatRequest) error {
	rec := myredis.PresenceRecord{
		UserId:       userId,
		Role:         role,
		ActivityKind: req.ActivityKind,
		Timestamp:    s.now().Unix(),
	}
	// 浏览状态不带会话
	if req.ActivityKind == constants.ActivityVideochat {
		rec.SessionId = req.SessionId
	}
	if err := s.store.Beat(ctx, rec); err != nil {
		zap.L().Error("写入心跳失败", zap.String("user_id", userId), zap.Error(err))
		return errorx.ErrServerBusy
	}
	return nil
}

// Online 在线用户，role 为空时返回全部
func (s *presenceService) Online(ctx context.Context, role string) ([]respond.OnlineUserItem, error) {
	recs, err := s.store.Online(ctx, s.now())
	if err != nil {
		zap.L().Error("查询在线列表失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	items := make([]respond.OnlineUserItem, 0, len(recs))
	for _, r := range recs {
		if role != "" && r.Role != role {
			continue
		}
		items = append(items, respond.OnlineUserItem{
			UserId:       r.UserId,
			Role:         r.Role,
			ActivityKind: r.ActivityKind,
			SessionId:    r.SessionId,
			LastSeen:     r.Timestamp,
		})
	}
	return items, nil
}

// IsOnline 心跳是否仍在有效期内；查询失败按在线处理，不阻断匹配
func (s *presenceService) IsOnline(ctx context.Context, userId string) bool {
	rec, err := s.store.Get(ctx, userId)
	if err != nil {
		zap.L().Warn("查询在线状态失败", zap.String("user_id", userId), zap.Error(err))
		return true
	}
	return rec != nil
}

// Prune 清理在线索引中的过期成员
func (s *presenceService) Prune(ctx context.Context) {
	if err := s.store.Prune(ctx, s.now()); err != nil {
		zap.L().Warn("清理在线索引失败", zap.Error(err))
	}
}
