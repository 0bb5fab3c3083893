// Package gift 礼物请求、接受、拒绝与直接赠送的客户端流程
package gift

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"pair_chat_server/internal/agent/api"
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/pkg/errorx"
	"pair_chat_server/pkg/util/gifttoken"
)

// API 礼物与余额接口
type API interface {
	Gifts(ctx context.Context) ([]respond.GiftItem, error)
	RequestGift(ctx context.Context, req request.GiftRequestRequest) (*respond.GiftRequestRespond, error)
	AcceptGift(ctx context.Context, requestId string, req request.GiftAcceptRequest) (*respond.GiftSettleRespond, error)
	RejectGift(ctx context.Context, requestId string, req request.GiftRejectRequest) (*respond.GiftRejectRespond, error)
	SendGift(ctx context.Context, req request.GiftSendRequest) (*respond.GiftSettleRespond, error)
	PendingGifts(ctx context.Context, sessionId string) ([]respond.PendingGiftItem, error)
	Balance(ctx context.Context) (*respond.BalanceRespond, error)
}

type Options struct {
	UserId      string
	TokenSecret []byte
	CallTimeout time.Duration
	// OnMessages 服务端返回的聊天消息，交给会话消息存储
	OnMessages func([]respond.MessageItem)
}

type Protocol struct {
	api    API
	clock  clockwork.Clock
	opts   Options
	ledger *Ledger

	mu        sync.Mutex
	sessionId string
	catalog   []respond.GiftItem
	pending   []respond.PendingGiftItem
	inflight  map[string]bool
	disabled  map[string]bool
}

func NewProtocol(a API, clk clockwork.Clock, ledger *Ledger, opts Options) *Protocol {
	return &Protocol{
		api:      a,
		clock:    clk,
		opts:     opts,
		ledger:   ledger,
		inflight: make(map[string]bool),
		disabled: make(map[string]bool),
	}
}

// SetSession 切换会话时清空待处理列表
func (p *Protocol) SetSession(sessionId string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessionId != sessionId {
		p.sessionId = sessionId
		p.pending = nil
	}
}

func (p *Protocol) Session() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionId
}

// Catalog 礼物目录，首次成功获取后缓存
func (p *Protocol) Catalog(ctx context.Context) ([]respond.GiftItem, error) {
	p.mu.Lock()
	cached := p.catalog
	p.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	gifts, err := p.api.Gifts(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.catalog = gifts
	p.mu.Unlock()
	return gifts, nil
}

func (p *Protocol) price(ctx context.Context, giftId string) (int64, error) {
	gifts, err := p.Catalog(ctx)
	if err != nil {
		return 0, err
	}
	for _, g := range gifts {
		if g.GiftId == giftId {
			return g.Price, nil
		}
	}
	return 0, errorx.New(errorx.CodeNotFound, "礼物不存在")
}

// Pending 本地缓存的待处理请求
func (p *Protocol) Pending() []respond.PendingGiftItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]respond.PendingGiftItem(nil), p.pending...)
}

// RefreshPending 以服务端列表替换本地缓存
func (p *Protocol) RefreshPending(ctx context.Context) error {
	sid := p.Session()
	if sid == "" {
		return nil
	}
	items, err := p.api.PendingGifts(ctx, sid)
	if err != nil {
		return err
	}
	p.mu.Lock()
	if p.sessionId == sid {
		p.pending = items
	}
	p.mu.Unlock()
	return nil
}

// RefreshBalance 同步服务端余额
func (p *Protocol) RefreshBalance(ctx context.Context) error {
	b, err := p.api.Balance(ctx)
	if err != nil {
		return err
	}
	p.ledger.Set(b.Balance)
	return nil
}

// InFlight 该请求是否有操作正在进行，界面据此禁用按钮
func (p *Protocol) InFlight(requestId string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight[requestId]
}

// Disabled 与该用户的礼物操作是否已被禁用
func (p *Protocol) Disabled(partnerId string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disabled[partnerId]
}

// RequestGift 主播向客户索要礼物；请求不自动重试，避免生成重复请求
func (p *Protocol) RequestGift(ctx context.Context, giftId, recipientId, message string) api.Result {
	sid := p.Session()
	if sid == "" {
		return api.ResultOf(errorx.New(errorx.CodeInvalidRequest, "没有进行中的会话"))
	}
	if p.Disabled(recipientId) {
		return api.ResultOf(errorx.New(errorx.CodeForbidden, "已禁止与该用户的礼物操作"))
	}
	token, err := gifttoken.Issue(p.opts.TokenSecret, gifttoken.Claims{
		SessionID:   sid,
		GiftID:      giftId,
		RequesterID: p.opts.UserId,
		IssuedAt:    p.clock.Now().Unix(),
	})
	if err != nil {
		zap.L().Error("签发礼物令牌失败", zap.Error(err))
		return api.ResultOf(errorx.Wrap(err, errorx.CodeServerBusy, "签发令牌失败"))
	}

	cctx, cancel := context.WithTimeout(ctx, p.opts.CallTimeout)
	defer cancel()
	resp, err := p.api.RequestGift(cctx, request.GiftRequestRequest{
		SessionId:     sid,
		GiftId:        giftId,
		RecipientId:   recipientId,
		Message:       message,
		SecurityToken: token,
	})
	if err != nil {
		p.onFailure(ctx, recipientId, err)
		return api.ResultOf(err)
	}
	zap.L().Info("礼物请求已发出", zap.String("request_id", resp.RequestId), zap.String("gift_id", giftId))
	if resp.ChatMessage != nil {
		p.deliver([]respond.MessageItem{*resp.ChatMessage})
	}
	return api.OK()
}

// AcceptGift 客户接受请求；同一请求同一时刻只允许一个调用
func (p *Protocol) AcceptGift(ctx context.Context, requestId string) api.Result {
	item, ok := p.find(requestId)
	if !ok {
		p.refreshPending(ctx)
		return api.ResultOf(errorx.New(errorx.CodeInvalidRequest, "请求不存在或已处理"))
	}
	if !p.acquire(requestId) {
		return api.ResultOf(errorx.New(errorx.CodeInFlight, "该请求正在处理"))
	}
	defer p.release(requestId)

	mid := p.ledger.Begin("accept", -item.Gift.Price, p.clock.Now())
	var resp *respond.GiftSettleRespond
	err := p.withRetry(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.api.AcceptGift(ctx, requestId, request.GiftAcceptRequest{SecurityToken: item.SecurityToken})
		return err
	})
	if err != nil {
		p.ledger.Fail(mid, err)
		p.onFailure(ctx, item.RequesterId, err)
		return api.ResultOf(err)
	}
	p.ledger.Confirm(mid, resp.Balance)
	p.remove(requestId)
	p.deliver(resp.Messages)
	zap.L().Info("礼物请求已接受", zap.String("request_id", requestId), zap.String("transaction_id", resp.TransactionId))
	return api.OK()
}

// RejectGift 客户拒绝请求，余额不变
func (p *Protocol) RejectGift(ctx context.Context, requestId, reason string) api.Result {
	item, ok := p.find(requestId)
	if !ok {
		p.refreshPending(ctx)
		return api.ResultOf(errorx.New(errorx.CodeInvalidRequest, "请求不存在或已处理"))
	}
	if !p.acquire(requestId) {
		return api.ResultOf(errorx.New(errorx.CodeInFlight, "该请求正在处理"))
	}
	defer p.release(requestId)

	err := p.withRetry(ctx, func(ctx context.Context) error {
		_, err := p.api.RejectGift(ctx, requestId, request.GiftRejectRequest{Reason: reason})
		return err
	})
	if err != nil {
		p.onFailure(ctx, item.RequesterId, err)
		return api.ResultOf(err)
	}
	p.remove(requestId)
	return api.OK()
}

// SendGift 客户直接送礼，先在本地检查余额
// 直接赠送没有幂等键，不自动重试
func (p *Protocol) SendGift(ctx context.Context, giftId, recipientId string) api.Result {
	sid := p.Session()
	if sid == "" {
		return api.ResultOf(errorx.New(errorx.CodeInvalidRequest, "没有进行中的会话"))
	}
	if p.Disabled(recipientId) {
		return api.ResultOf(errorx.New(errorx.CodeForbidden, "已禁止与该用户的礼物操作"))
	}
	price, err := p.price(ctx, giftId)
	if err != nil {
		return api.ResultOf(err)
	}
	if _, known := p.ledger.Balance(); !known {
		if err := p.RefreshBalance(ctx); err != nil {
			return api.ResultOf(err)
		}
	}
	if balance, _ := p.ledger.Balance(); balance < price {
		return api.ResultOf(errorx.ErrInsufficientBalance)
	}

	mid := p.ledger.Begin("send", -price, p.clock.Now())
	cctx, cancel := context.WithTimeout(ctx, p.opts.CallTimeout)
	defer cancel()
	resp, err := p.api.SendGift(cctx, request.GiftSendRequest{SessionId: sid, GiftId: giftId, RecipientId: recipientId})
	if err != nil {
		p.ledger.Fail(mid, err)
		p.onFailure(ctx, recipientId, err)
		return api.ResultOf(err)
	}
	p.ledger.Confirm(mid, resp.Balance)
	p.deliver(resp.Messages)
	return api.OK()
}

// onFailure 按错误类别处理本地状态
// refreshPending 刷新失败只记日志，下一轮定时刷新会再试
func (p *Protocol) refreshPending(ctx context.Context) {
	if err := p.RefreshPending(ctx); err != nil {
		zap.L().Warn("刷新待处理礼物失败", zap.Error(err))
	}
}

func (p *Protocol) onFailure(ctx context.Context, partnerId string, err error) {
	switch errorx.Classify(err) {
	case errorx.CategoryConflict:
		// 本地状态过期，刷新而不是重试
		p.refreshPending(ctx)
		if rerr := p.RefreshBalance(ctx); rerr != nil {
			zap.L().Warn("刷新余额失败", zap.Error(rerr))
		}
	case errorx.CategoryAuthorization:
		p.mu.Lock()
		p.disabled[partnerId] = true
		p.mu.Unlock()
		zap.L().Warn("已禁用与该用户的礼物操作", zap.String("partner_id", partnerId), zap.Error(err))
	default:
		zap.L().Warn("礼物操作失败", zap.String("error_kind", errorx.Kind(err)), zap.Error(err))
	}
}

func (p *Protocol) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, p.opts.CallTimeout)
		err = fn(cctx)
		cancel()
		if err == nil || !errorx.IsTransient(err) || ctx.Err() != nil {
			return err
		}
		zap.L().Warn("礼物操作超时，重试一次", zap.Error(err))
	}
	return err
}

func (p *Protocol) acquire(requestId string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight[requestId] {
		return false
	}
	p.inflight[requestId] = true
	return true
}

func (p *Protocol) release(requestId string) {
	p.mu.Lock()
	delete(p.inflight, requestId)
	p.mu.Unlock()
}

func (p *Protocol) find(requestId string) (respond.PendingGiftItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range p.pending {
		if it.RequestId == requestId {
			return it, true
		}
	}
	return respond.PendingGiftItem{}, false
}

func (p *Protocol) remove(requestId string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := make([]respond.PendingGiftItem, 0, len(p.pending))
	for _, it := range p.pending {
		if it.RequestId != requestId {
			kept = append(kept, it)
		}
	}
	p.pending = kept
}

func (p *Protocol) deliver(msgs []respond.MessageItem) {
	if p.opts.OnMessages != nil && len(msgs) > 0 {
		p.opts.OnMessages(msgs)
	}
}
