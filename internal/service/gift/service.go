// Package gift 礼物目录、请求/接受/拒绝流程与直接赠送
package gift

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pair_chat_server/internal/config"
	"pair_chat_server/internal/dao/mysql/repository"
	myredis "pair_chat_server/internal/dao/redis"
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/infrastructure/mq"
	"pair_chat_server/internal/model"
	"pair_chat_server/internal/service/chat"
	"pair_chat_server/internal/service/relation"
	"pair_chat_server/internal/service/room"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
	"pair_chat_server/pkg/util/gifttoken"
)

type giftService struct {
	repos   *repository.Repositories
	events  mq.Publisher
	catalog *catalog
	secret  []byte
	expiry  time.Duration
	maxAge  time.Duration
	now     func() time.Time
}

func NewGiftService(repos *repository.Repositories, cache myredis.AsyncCacheService, events mq.Publisher, cfg config.GiftConfig) *giftService {
	s := &giftService{
		repos:   repos,
		events:  events,
		catalog: &catalog{repos: repos, cache: cache, ttl: cfg.CatalogTTL},
		secret:  []byte(cfg.TokenSecret),
		expiry:  cfg.RequestExpiry,
		maxAge:  cfg.TokenMaxAge,
		now:     time.Now,
	}
	if s.expiry <= 0 {
		s.expiry = constants.DefaultRequestExpiry
	}
	if s.maxAge <= 0 {
		s.maxAge = constants.DefaultGiftTokenMaxAge
	}
	if s.catalog.ttl <= 0 {
		s.catalog.ttl = constants.DefaultGiftCatalogTTL
	}
	return s
}

// Catalog 可用礼物列表
func (s *giftService) Catalog(ctx context.Context) ([]respond.GiftItem, error) {
	return s.catalog.list(ctx)
}

// SeedCatalog 空库时写入默认礼物
func (s *giftService) SeedCatalog(ctx context.Context) error {
	return s.catalog.seed(ctx)
}

func (s *giftService) findGift(repos *repository.Repositories, giftId string) (*model.Gift, error) {
	g, err := repos.Gift.FindByUuid(giftId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeInvalidParam, "礼物不存在")
		}
		zap.L().Error("查询礼物失败", zap.String("gift_id", giftId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return g, nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, gifttoken.ErrExpired):
		return errorx.Wrap(err, errorx.CodeInvalidToken, "安全令牌已过期")
	case errors.Is(err, gifttoken.ErrBinding), errors.Is(err, gifttoken.ErrInvalid):
		return errorx.Wrap(err, errorx.CodeInvalidToken, "安全令牌无效")
	}
	return errorx.Wrap(err, errorx.CodeServerBusy, "校验安全令牌")
}

// Request 主播在进行中的会话里向客户索要礼物
func (s *giftService) Request(ctx context.Context, userId string, req request.GiftRequestRequest) (*respond.GiftRequestRespond, error) {
	repos := s.repos.WithContext(ctx)
	sess, err := room.LoadParticipant(repos, req.SessionId, userId)
	if err != nil {
		return nil, err
	}
	if sess.ModelId != userId || sess.ClientId != req.RecipientId {
		return nil, errorx.New(errorx.CodeForbidden, "只有主播可以向本会话的客户索要礼物")
	}
	if err := relation.Check(repos, userId, req.RecipientId); err != nil {
		return nil, err
	}
	if sess.State != model.SessionStateActive {
		return nil, errorx.New(errorx.CodeInvalidRequest, "会话已结束")
	}
	g, err := s.findGift(repos, req.GiftId)
	if err != nil {
		return nil, err
	}

	now := s.now()
	want := gifttoken.Claims{SessionID: sess.Uuid, GiftID: g.Uuid, RequesterID: userId}
	if _, err := gifttoken.Verify(s.secret, req.SecurityToken, want, s.maxAge, now); err != nil {
		zap.L().Warn("礼物令牌校验失败", zap.String("session_id", sess.Uuid), zap.Error(err))
		return nil, tokenError(err)
	}

	gr := &model.GiftRequest{
		Uuid:          uuid.NewString(),
		SessionId:     sess.Uuid,
		RequesterId:   userId,
		RecipientId:   req.RecipientId,
		GiftId:        g.Uuid,
		Message:       req.Message,
		SecurityToken: req.SecurityToken,
		TokenHash:     gifttoken.Hash(req.SecurityToken),
		Status:        model.GiftRequestPending,
		ExpiresAt:     now.Add(s.expiry),
	}
	payload := model.GiftRequestPayload{
		GiftInfo:    giftInfo(g),
		RequestId:   gr.Uuid,
		RequesterId: userId,
		RecipientId: req.RecipientId,
		Message:     req.Message,
	}
	msg, err := chat.NewMessage(sess.Uuid, userId, req.Message, payload, now)
	if err != nil {
		return nil, err
	}

	err = repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.GiftRequest.Create(gr); err != nil {
			return err
		}
		return tx.Message.Create(msg)
	})
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeDuplicateRequest {
			return nil, errorx.New(errorx.CodeDuplicateRequest, "安全令牌已被使用")
		}
		zap.L().Error("创建礼物请求失败", zap.String("session_id", sess.Uuid), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	zap.L().Info("礼物请求已创建",
		zap.String("request_id", gr.Uuid),
		zap.String("session_id", sess.Uuid),
		zap.String("gift_id", g.Uuid),
	)
	item := chat.ToItem(*msg)
	return &respond.GiftRequestRespond{Success: true, RequestId: gr.Uuid, ChatMessage: &item}, nil
}

// loadActionable 读取接收方可处理的请求；已过期的顺带标记为 expired
func (s *giftService) loadActionable(repos *repository.Repositories, userId, requestId string, now time.Time) (*model.GiftRequest, error) {
	gr, err := repos.GiftRequest.FindByUuid(requestId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "礼物请求不存在")
		}
		zap.L().Error("查询礼物请求失败", zap.String("request_id", requestId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if gr.RecipientId != userId {
		return nil, errorx.New(errorx.CodeForbidden, "只有接收方可以处理该请求")
	}
	if gr.Status != model.GiftRequestPending {
		return nil, errorx.ErrInvalidRequest
	}
	if !now.Before(gr.ExpiresAt) {
		if _, err := repos.GiftRequest.Transition(gr.Uuid, model.GiftRequestPending, model.GiftRequestExpired, "", now); err != nil {
			zap.L().Warn("标记礼物请求过期失败", zap.String("request_id", gr.Uuid), zap.Error(err))
		}
		return nil, errorx.New(errorx.CodeInvalidRequest, "礼物请求已过期")
	}
	return gr, nil
}

// Accept 接收方接受请求：校验令牌后在一个事务里完成状态翻转、扣款、入账、流水和消息
func (s *giftService) Accept(ctx context.Context, userId, requestId string, req request.GiftAcceptRequest) (*respond.GiftSettleRespond, error) {
	repos := s.repos.WithContext(ctx)
	now := s.now()
	gr, err := s.loadActionable(repos, userId, requestId, now)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(gifttoken.Hash(req.SecurityToken)), []byte(gr.TokenHash)) != 1 {
		return nil, errorx.ErrInvalidToken
	}
	want := gifttoken.Claims{SessionID: gr.SessionId, GiftID: gr.GiftId, RequesterID: gr.RequesterId}
	if _, err := gifttoken.Verify(s.secret, req.SecurityToken, want, s.maxAge, now); err != nil {
		return nil, tokenError(err)
	}
	g, err := s.findGift(repos, gr.GiftId)
	if err != nil {
		return nil, err
	}

	return s.settle(ctx, settlement{
		requestId:   gr.Uuid,
		sessionId:   gr.SessionId,
		senderId:    userId,
		senderRole:  constants.RoleClient,
		recipientId: gr.RequesterId,
		gift:        g,
		at:          now,
	})
}

// Reject 接收方拒绝，余额不变
func (s *giftService) Reject(ctx context.Context, userId, requestId string, req request.GiftRejectRequest) (*respond.GiftRejectRespond, error) {
	repos := s.repos.WithContext(ctx)
	now := s.now()
	gr, err := s.loadActionable(repos, userId, requestId, now)
	if err != nil {
		return nil, err
	}
	ok, err := repos.GiftRequest.Transition(gr.Uuid, model.GiftRequestPending, model.GiftRequestRejected, req.Reason, now)
	if err != nil {
		zap.L().Error("拒绝礼物请求失败", zap.String("request_id", gr.Uuid), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if !ok {
		return nil, errorx.ErrInvalidRequest
	}
	zap.L().Info("礼物请求已拒绝", zap.String("request_id", gr.Uuid), zap.String("reason", req.Reason))
	return &respond.GiftRejectRespond{Success: true, RequestId: gr.Uuid}, nil
}

// Send 客户在进行中的会话里直接送礼给主播
func (s *giftService) Send(ctx context.Context, userId string, req request.GiftSendRequest) (*respond.GiftSettleRespond, error) {
	repos := s.repos.WithContext(ctx)
	sess, err := room.LoadParticipant(repos, req.SessionId, userId)
	if err != nil {
		return nil, err
	}
	if sess.ClientId != userId || sess.ModelId != req.RecipientId {
		return nil, errorx.New(errorx.CodeForbidden, "只有客户可以直接送礼给本会话的主播")
	}
	if err := relation.Check(repos, userId, req.RecipientId); err != nil {
		return nil, err
	}
	if sess.State != model.SessionStateActive {
		return nil, errorx.New(errorx.CodeInvalidRequest, "会话已结束")
	}
	g, err := s.findGift(repos, req.GiftId)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, settlement{
		sessionId:   sess.Uuid,
		senderId:    userId,
		senderRole:  constants.RoleClient,
		recipientId: req.RecipientId,
		gift:        g,
		at:          s.now(),
	})
}

// Pending 发给调用方、尚未过期的请求
func (s *giftService) Pending(ctx context.Context, userId, sessionId string) ([]respond.PendingGiftItem, error) {
	reqs, err := s.repos.WithContext(ctx).GiftRequest.FindPending(userId, sessionId, s.now())
	if err != nil {
		zap.L().Error("查询待处理礼物请求失败", zap.String("user_id", userId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if len(reqs) == 0 {
		return []respond.PendingGiftItem{}, nil
	}
	gifts, err := s.catalog.list(ctx)
	if err != nil {
		return nil, err
	}
	byId := make(map[string]respond.GiftItem, len(gifts))
	for _, g := range gifts {
		byId[g.GiftId] = g
	}

	items := make([]respond.PendingGiftItem, 0, len(reqs))
	for _, r := range reqs {
		g, ok := byId[r.GiftId]
		if !ok {
			g = respond.GiftItem{GiftId: r.GiftId}
		}
		items = append(items, respond.PendingGiftItem{
			RequestId:     r.Uuid,
			SessionId:     r.SessionId,
			RequesterId:   r.RequesterId,
			Gift:          g,
			Message:       r.Message,
			SecurityToken: r.SecurityToken,
			CreatedAt:     r.CreatedAt.UnixMilli(),
			ExpiresAt:     r.ExpiresAt.UnixMilli(),
		})
	}
	return items, nil
}

func giftInfo(g *model.Gift) model.GiftInfo {
	return model.GiftInfo{GiftId: g.Uuid, Name: g.Name, Price: g.Price, ImageRef: g.ImageRef}
}
