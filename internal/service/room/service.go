// Package room 配对会话的生命周期
package room

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pair_chat_server/internal/dao/mysql/repository"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/infrastructure/mq"
	"pair_chat_server/internal/model"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
	"pair_chat_server/pkg/util/random"
)

// Notifier 向对方投递信箱通知
type Notifier interface {
	Publish(ctx context.Context, target, kind, sessionId string, data any) error
}

type roomService struct {
	repos  *repository.Repositories
	notify Notifier
	events mq.Publisher
	now    func() time.Time
}

func NewRoomService(repos *repository.Repositories, notify Notifier, events mq.Publisher) *roomService {
	return &roomService{repos: repos, notify: notify, events: events, now: time.Now}
}

// LoadParticipant 读取会话并确认 userId 是参与者
func LoadParticipant(repos *repository.Repositories, sessionId, userId string) (*model.PairSession, error) {
	sess, err := repos.Session.FindByUuid(sessionId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
		}
		zap.L().Error("查询会话失败", zap.String("session_id", sessionId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if _, ok := sess.Partner(userId); !ok {
		return nil, errorx.New(errorx.CodeForbidden, "不是该会话的参与者")
	}
	return sess, nil
}

// ToRespond 以 viewer 视角转换会话
func ToRespond(sess *model.PairSession, viewer string) *respond.SessionRespond {
	partner, _ := sess.Partner(viewer)
	r := &respond.SessionRespond{
		SessionId: sess.Uuid,
		ModelId:   sess.ModelId,
		ClientId:  sess.ClientId,
		PartnerId: partner,
		Role:      sess.RoleOf(viewer),
		State:     sess.State,
		EndReason: sess.EndReason,
		StartedAt: sess.StartedAt.UnixMilli(),
	}
	if sess.EndedAt.Valid {
		r.EndedAt = sess.EndedAt.Time.UnixMilli()
	}
	return r
}

// Create 为一对主播与客户开房
func (s *roomService) Create(ctx context.Context, modelId, clientId string) (*model.PairSession, error) {
	sess := &model.PairSession{
		Uuid:      random.RoomName(),
		ModelId:   modelId,
		ClientId:  clientId,
		State:     model.SessionStateActive,
		StartedAt: s.now(),
	}
	if err := s.repos.WithContext(ctx).Session.Create(sess); err != nil {
		zap.L().Error("创建会话失败",
			zap.String("model_id", modelId),
			zap.String("client_id", clientId),
			zap.Error(err),
		)
		return nil, errorx.ErrServerBusy
	}
	zap.L().Info("会话已创建",
		zap.String("session_id", sess.Uuid),
		zap.String("model_id", modelId),
		zap.String("client_id", clientId),
	)
	return sess, nil
}

// Get 会话详情
func (s *roomService) Get(ctx context.Context, userId, sessionId string) (*respond.SessionRespond, error) {
	sess, err := LoadParticipant(s.repos.WithContext(ctx), sessionId, userId)
	if err != nil {
		return nil, err
	}
	return ToRespond(sess, userId), nil
}

// Events 会话的审计事件
func (s *roomService) Events(ctx context.Context, userId, sessionId string) ([]model.SessionEvent, error) {
	repos := s.repos.WithContext(ctx)
	if _, err := LoadParticipant(repos, sessionId, userId); err != nil {
		return nil, err
	}
	events, err := repos.Event.FindBySession(sessionId)
	if err != nil {
		zap.L().Error("查询会话事件失败", zap.String("session_id", sessionId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return events, nil
}

// Next 跳过当前伙伴，对方收到 partner_went_next
func (s *roomService) Next(ctx context.Context, userId, sessionId string) (*respond.EndSessionRespond, error) {
	return s.end(ctx, userId, sessionId, model.EndReasonNext)
}

// Leave 离开会话，对方收到 partner_left_session
func (s *roomService) Leave(ctx context.Context, userId, sessionId string) (*respond.EndSessionRespond, error) {
	return s.end(ctx, userId, sessionId, model.EndReasonLeave)
}

// end 只有完成条件更新的一方负责通知对方，重复调用按成功返回
func (s *roomService) end(ctx context.Context, userId, sessionId, reason string) (*respond.EndSessionRespond, error) {
	repos := s.repos.WithContext(ctx)
	sess, err := LoadParticipant(repos, sessionId, userId)
	if err != nil {
		return nil, err
	}

	ended, err := repos.Session.End(sessionId, userId, reason, s.now())
	if err != nil {
		zap.L().Error("结束会话失败", zap.String("session_id", sessionId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	result := &respond.EndSessionRespond{SessionId: sessionId, Ended: ended, State: model.SessionStateEnded}
	if !ended {
		zap.L().Info("会话此前已结束", zap.String("session_id", sessionId), zap.String("user_id", userId))
		return result, nil
	}

	partner, _ := sess.Partner(userId)
	kind, redirect := constants.NotifyPartnerLeftSession, "home"
	if reason == model.EndReasonNext {
		kind, redirect = constants.NotifyPartnerWentNext, "search"
	}
	data := respond.PartnerEventData{SessionId: sessionId, EndedBy: userId, Reason: reason, Redirect: redirect}
	// 通知失败不回滚结束，对方还会在断线宽限期后自行结束
	if err := s.notify.Publish(ctx, partner, kind, sessionId, data); err != nil {
		zap.L().Warn("通知对方失败", zap.String("session_id", sessionId), zap.String("partner", partner), zap.Error(err))
	}

	ev := mq.NewEvent(constants.EventSessionEnded, sessionId, userId, map[string]string{
		"reason":  reason,
		"partner": partner,
	})
	if err := s.events.Publish(ctx, ev); err != nil {
		zap.L().Warn("发布会话结束事件失败", zap.String("session_id", sessionId), zap.Error(err))
	}

	zap.L().Info("会话已结束",
		zap.String("session_id", sessionId),
		zap.String("ended_by", userId),
		zap.String("reason", reason),
	)
	return result, nil
}
