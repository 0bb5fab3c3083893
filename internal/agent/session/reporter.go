package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pair_chat_server/internal/agent/api"
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/pkg/errorx"
)

// DurationAPI 时长上报接口
type DurationAPI interface {
	ReportDuration(ctx context.Context, req request.DurationReportRequest) (*respond.DurationReportRespond, error)
}

// Reporter 上报时长，瞬时错误最多重试一次
type Reporter struct {
	api     DurationAPI
	timeout time.Duration
}

func NewReporter(a DurationAPI, timeout time.Duration) *Reporter {
	return &Reporter{api: a, timeout: timeout}
}

// Report 服务端返回 duplicate_request 说明已入账，按成功处理
func (r *Reporter) Report(ctx context.Context, sessionId string, secs int64) api.Result {
	req := request.DurationReportRequest{SessionId: sessionId, Seconds: secs}
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = r.once(ctx, req)
		if err == nil || errorx.GetCode(err) == errorx.CodeDuplicateRequest {
			zap.L().Info("时长已上报", zap.String("session_id", sessionId), zap.Int64("seconds", secs))
			return api.OK()
		}
		if !errorx.IsTransient(err) || ctx.Err() != nil {
			break
		}
		zap.L().Warn("时长上报失败，重试一次", zap.String("session_id", sessionId), zap.Error(err))
	}
	zap.L().Error("时长上报失败", zap.String("session_id", sessionId), zap.Int64("seconds", secs), zap.Error(err))
	return api.ResultOf(err)
}

func (r *Reporter) once(ctx context.Context, req request.DurationReportRequest) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.api.ReportDuration(ctx, req)
	return err
}
