// Package relation 用户之间的屏蔽关系
package relation

import (
	"context"

	"go.uber.org/zap"

	"pair_chat_server/internal/dao/mysql/repository"
	"pair_chat_server/pkg/errorx"
)

// ErrBlocked 双方存在屏蔽关系
var ErrBlocked = errorx.New(errorx.CodeBlocked, "对方不可用")

// Check 任一方屏蔽了对方时返回 ErrBlocked
func Check(repos *repository.Repositories, a, b string) error {
	blocked, err := repos.Block.Between(a, b)
	if err != nil {
		zap.L().Error("查询屏蔽关系失败", zap.String("a", a), zap.String("b", b), zap.Error(err))
		return errorx.ErrServerBusy
	}
	if blocked {
		return ErrBlocked
	}
	return nil
}

type relationService struct {
	repos *repository.Repositories
}

func NewRelationService(repos *repository.Repositories) *relationService {
	return &relationService{repos: repos}
}

func (s *relationService) Block(ctx context.Context, userId, targetId string) error {
	if userId == targetId {
		return errorx.New(errorx.CodeInvalidParam, "不能屏蔽自己")
	}
	repos := s.repos.WithContext(ctx)
	if _, err := repos.User.FindByUuid(targetId); err != nil {
		if errorx.IsNotFound(err) {
			return errorx.New(errorx.CodeNotFound, "用户不存在")
		}
		zap.L().Error("查询用户失败", zap.String("user_id", targetId), zap.Error(err))
		return errorx.ErrServerBusy
	}
	if err := repos.Block.Block(userId, targetId); err != nil {
		zap.L().Error("屏蔽失败", zap.String("user_id", userId), zap.String("target", targetId), zap.Error(err))
		return errorx.ErrServerBusy
	}
	zap.L().Info("已屏蔽", zap.String("user_id", userId), zap.String("target", targetId))
	return nil
}

func (s *relationService) Unblock(ctx context.Context, userId, targetId string) error {
	if err := s.repos.WithContext(ctx).Block.Unblock(userId, targetId); err != nil {
		zap.L().Error("取消屏蔽失败", zap.String("user_id", userId), zap.String("target", targetId), zap.Error(err))
		return errorx.ErrServerBusy
	}
	return nil
}

// Blocked 用户主动屏蔽的对象
func (s *relationService) Blocked(ctx context.Context, userId string) ([]string, error) {
	ids, err := s.repos.WithContext(ctx).Block.BlockedBy(userId)
	if err != nil {
		zap.L().Error("查询屏蔽列表失败", zap.String("user_id", userId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
