// Package audit 把总线上的会话事件投影到 session_event 表
package audit

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"pair_chat_server/internal/dao/mysql/repository"
	"pair_chat_server/internal/infrastructure/mq"
	"pair_chat_server/internal/model"
)

// Projector 审计投影
type Projector struct {
	repos *repository.Repositories
}

func NewProjector(repos *repository.Repositories) *Projector {
	return &Projector{repos: repos}
}

// Handle 实现 mq.Handler
func (p *Projector) Handle(ctx context.Context, ev mq.Event) error {
	row := &model.SessionEvent{
		EventKey:   ev.Key,
		SessionId:  ev.SessionId,
		ActorId:    ev.ActorId,
		OccurredAt: ev.OccurredAt,
	}
	if len(ev.Payload) > 0 {
		row.Payload = datatypes.JSON(ev.Payload)
	}
	if err := p.repos.WithContext(ctx).Event.Create(row); err != nil {
		zap.L().Error("写入会话事件失败",
			zap.String("key", ev.Key),
			zap.String("session_id", ev.SessionId),
			zap.Error(err),
		)
		return err
	}
	return nil
}
