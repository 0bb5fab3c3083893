// Package earnings 会话时长入账与账户余额
package earnings

import (
	"context"

	"go.uber.org/zap"

	"pair_chat_server/internal/config"
	"pair_chat_server/internal/dao/mysql/repository"
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/infrastructure/mq"
	"pair_chat_server/internal/model"
	"pair_chat_server/internal/service/room"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
)

type earningsService struct {
	repos  *repository.Repositories
	events mq.Publisher
	rate   int64
}

func NewEarningsService(repos *repository.Repositories, events mq.Publisher, cfg config.SessionConfig) *earningsService {
	rate := cfg.RatePerMinute
	if rate <= 0 {
		rate = constants.DefaultRatePerMinute
	}
	return &earningsService{repos: repos, events: events, rate: rate}
}

// Earn 按分钟费率折算，向下取整
func (s *earningsService) Earn(seconds int64) int64 {
	return seconds * s.rate / 60
}

// ReportDuration 每个会话只入账一次，重复上报返回 duplicate_request 且不改收益
func (s *earningsService) ReportDuration(ctx context.Context, userId string, req request.DurationReportRequest) (*respond.DurationReportRespond, error) {
	if req.Seconds < 1 {
		return nil, errorx.New(errorx.CodeInvalidParam, "时长必须大于 0")
	}
	repos := s.repos.WithContext(ctx)
	sess, err := room.LoadParticipant(repos, req.SessionId, userId)
	if err != nil {
		return nil, err
	}

	report := &model.DurationReport{
		SessionId:  sess.Uuid,
		Epoch:      sess.StartedAt.Unix(),
		ReporterId: userId,
		Seconds:    req.Seconds,
		Earnings:   s.Earn(req.Seconds),
	}
	err = repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Duration.Create(report); err != nil {
			return err
		}
		if report.Earnings == 0 {
			return nil
		}
		return tx.User.AddEarnings(sess.ModelId, report.Earnings)
	})
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeDuplicateRequest {
			zap.L().Info("重复的时长上报",
				zap.String("session_id", sess.Uuid),
				zap.String("reporter", userId),
			)
			return nil, errorx.New(errorx.CodeDuplicateRequest, "该会话时长已上报")
		}
		zap.L().Error("时长入账失败", zap.String("session_id", sess.Uuid), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	ev := mq.NewEvent(constants.EventDurationReported, sess.Uuid, userId, map[string]int64{
		"seconds":  report.Seconds,
		"earnings": report.Earnings,
		"epoch":    report.Epoch,
	})
	if err := s.events.Publish(ctx, ev); err != nil {
		zap.L().Warn("发布时长事件失败", zap.String("session_id", sess.Uuid), zap.Error(err))
	}

	zap.L().Info("时长已入账",
		zap.String("session_id", sess.Uuid),
		zap.Int64("seconds", report.Seconds),
		zap.Int64("earnings", report.Earnings),
	)
	earned := report.Earnings
	return &respond.DurationReportRespond{Success: true, Earnings: &earned}, nil
}

// Balance 账户余额与累计收益
func (s *earningsService) Balance(ctx context.Context, userId string) (*respond.BalanceRespond, error) {
	user, err := s.repos.WithContext(ctx).User.FindByUuid(userId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "用户不存在")
		}
		zap.L().Error("查询余额失败", zap.String("user_id", userId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return &respond.BalanceRespond{Balance: user.Balance, Earnings: user.Earnings}, nil
}
