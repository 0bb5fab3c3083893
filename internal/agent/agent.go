// Package agent 客户端会话协调核心
// 一个 Core 代表一个登录用户：心跳、信箱、匹配、会话消息、礼物和余额各自独立轮询
package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"pair_chat_server/internal/agent/api"
	"pair_chat_server/internal/agent/conversation"
	"pair_chat_server/internal/agent/gift"
	"pair_chat_server/internal/agent/heartbeat"
	"pair_chat_server/internal/agent/loop"
	"pair_chat_server/internal/agent/mailbox"
	"pair_chat_server/internal/agent/media"
	"pair_chat_server/internal/agent/session"
	"pair_chat_server/internal/config"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/model"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/errorx"
)

type Result = api.Result

// Backend 服务端接口，*api.Client 即为实现
type Backend interface {
	heartbeat.Sender
	mailbox.Source
	session.Matcher
	session.DurationAPI
	gift.API
	conversation.API
	Online(ctx context.Context, role string) ([]respond.OnlineUserItem, error)
}

type Options struct {
	UserId      string
	Role        string
	TokenSecret []byte
	// OnIncoming 会话里收到他人的新消息
	OnIncoming func(room string, in []conversation.Incoming)
}

type Core struct {
	cfg     config.AgentConfig
	opts    Options
	backend Backend

	heartbeat *heartbeat.Emitter
	mailbox   *mailbox.Poller
	machine   *session.Machine
	ledger    *gift.Ledger
	gifts     *gift.Protocol
	chats     *conversation.Store

	presence *loop.Loop
	pending  *loop.Loop
	balance  *loop.Loop

	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	online   []respond.OnlineUserItem
	openRoom string
}

func New(cfg config.AgentConfig, backend Backend, transport media.Transport, clk clockwork.Clock, opts Options) *Core {
	base, cancel := context.WithCancel(context.Background())
	c := &Core{
		cfg:     cfg,
		opts:    opts,
		backend: backend,
		base:    base,
		cancel:  cancel,
		ledger:  gift.NewLedger(),
	}
	c.heartbeat = heartbeat.NewEmitter(backend, clk, cfg.HeartbeatActive, cfg.HeartbeatIdle)
	c.mailbox = mailbox.NewPoller(backend, clk, mailbox.Backoff{
		Base: cfg.MailboxBase,
		Step: cfg.MailboxStep,
		Max:  cfg.MailboxMax,
		N:    cfg.MailboxBackoffN,
	})
	c.chats = conversation.NewStore(backend, clk, conversation.Options{
		UserId:       opts.UserId,
		Role:         opts.Role,
		SyncInterval: cfg.MessageSync,
		CallTimeout:  cfg.CallTimeout,
		OnNew:        c.onIncoming,
	})
	c.gifts = gift.NewProtocol(backend, clk, c.ledger, gift.Options{
		UserId:      opts.UserId,
		TokenSecret: opts.TokenSecret,
		CallTimeout: cfg.CallTimeout,
		OnMessages:  c.chats.Deliver,
	})
	c.machine = session.NewMachine(session.Deps{
		Matcher:   backend,
		Durations: backend,
		Presence:  c.heartbeat,
		Mailbox:   c.mailbox,
		Transport: transport,
		Clock:     clk,
	}, session.OptionsFrom(cfg))
	c.machine.OnChange(c.onSession)

	c.presence = loop.New("presence", clk, loop.Every(cfg.Presence), c.refreshOnline)
	c.pending = loop.New("pending-gifts", clk, loop.Every(cfg.PendingGifts), c.refreshPending)
	c.balance = loop.New("balance", clk, loop.Every(cfg.PendingGifts), c.refreshBalance)
	return c
}

// Start 启动心跳和各个后台循环
func (c *Core) Start() error {
	if err := c.heartbeat.Start(c.base); err != nil {
		return err
	}
	for _, l := range []*loop.Loop{c.presence, c.pending, c.balance} {
		if err := l.Start(c.base); err != nil {
			return err
		}
	}
	c.balance.Trigger(c.base)
	c.presence.Trigger(c.base)
	zap.L().Info("客户端核心已启动", zap.String("user_id", c.opts.UserId), zap.String("role", c.opts.Role))
	return nil
}

func (c *Core) onSession(s session.Snapshot) {
	switch s.State {
	case session.StateActive:
		c.gifts.SetSession(s.SessionId)
		c.mu.Lock()
		c.openRoom = s.SessionId
		c.mu.Unlock()
		if err := c.chats.Get(s.SessionId).Open(c.base); err != nil && !errors.Is(err, loop.ErrRunning) {
			zap.L().Warn("打开会话消息失败", zap.String("room", s.SessionId), zap.Error(err))
		}
	case session.StateEnding, session.StateTerminated, session.StateIdle:
		c.gifts.SetSession("")
		c.mu.Lock()
		room := c.openRoom
		c.openRoom = ""
		c.mu.Unlock()
		if room != "" {
			c.chats.Get(room).Close()
		}
	}
}

func (c *Core) onIncoming(room string, in []conversation.Incoming) {
	for _, m := range in {
		switch p := m.Payload.(type) {
		case model.GiftReceivedPayload:
			zap.L().Info("收到礼物", zap.String("room", room), zap.String("gift", p.Name), zap.Int64("price", p.Price))
		case model.GiftRequestPayload:
			zap.L().Info("收到礼物请求", zap.String("room", room), zap.String("gift", p.Name), zap.String("request_id", p.RequestId))
		}
	}
	if c.opts.OnIncoming != nil {
		c.opts.OnIncoming(room, in)
	}
}

func (c *Core) refreshOnline(ctx context.Context) {
	other := constants.RoleModel
	if c.opts.Role == constants.RoleModel {
		other = constants.RoleClient
	}
	users, err := c.backend.Online(ctx, other)
	if err != nil {
		if ctx.Err() == nil {
			zap.L().Warn("刷新在线列表失败", zap.Error(err))
		}
		return
	}
	c.mu.Lock()
	c.online = users
	c.mu.Unlock()
}

func (c *Core) refreshPending(ctx context.Context) {
	if c.opts.Role != constants.RoleClient {
		return
	}
	if err := c.gifts.RefreshPending(ctx); err != nil && ctx.Err() == nil {
		zap.L().Warn("刷新待处理礼物失败", zap.Error(err))
	}
}

// refreshBalance 客户在会话中余额耗尽时结束会话
func (c *Core) refreshBalance(ctx context.Context) {
	if err := c.gifts.RefreshBalance(ctx); err != nil {
		if ctx.Err() == nil {
			zap.L().Warn("刷新余额失败", zap.Error(err))
		}
		return
	}
	if c.opts.Role != constants.RoleClient {
		return
	}
	if balance, _ := c.ledger.Balance(); balance <= 0 && c.machine.Snapshot().State == session.StateActive {
		zap.L().Info("余额耗尽，结束会话")
		c.machine.EndForBalance(ctx)
	}
}

// SessionState 当前会话状态
func (c *Core) SessionState() session.Snapshot {
	return c.machine.Snapshot()
}

// OnSessionChange 订阅会话状态变化
func (c *Core) OnSessionChange(fn func(session.Snapshot)) {
	c.machine.OnChange(fn)
}

func (c *Core) StartSession(ctx context.Context) Result {
	return c.machine.StartSession(ctx)
}

func (c *Core) EndSession(ctx context.Context, exit bool) Result {
	return c.machine.EndSession(ctx, exit)
}

func (c *Core) SkipSession(ctx context.Context) Result {
	return c.machine.SkipSession(ctx)
}

// Conversation 指定房间的消息视图
func (c *Core) Conversation(room string) *conversation.Conversation {
	return c.chats.Get(room)
}

// RefreshConversations 更新各会话的服务端未读数
func (c *Core) RefreshConversations(ctx context.Context) ([]respond.ConversationItem, error) {
	return c.chats.RefreshUnread(ctx)
}

func (c *Core) Online() []respond.OnlineUserItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]respond.OnlineUserItem(nil), c.online...)
}

func (c *Core) Catalog(ctx context.Context) ([]respond.GiftItem, error) {
	return c.gifts.Catalog(ctx)
}

func (c *Core) PendingGiftRequests() []respond.PendingGiftItem {
	return c.gifts.Pending()
}

func (c *Core) requireRole(role string) *Result {
	if c.opts.Role == role {
		return nil
	}
	r := api.ResultOf(errorx.ErrForbidden)
	return &r
}

// RequestGift 主播向当前会话的对方索要礼物
func (c *Core) RequestGift(ctx context.Context, giftId, message string) Result {
	if r := c.requireRole(constants.RoleModel); r != nil {
		return *r
	}
	s := c.machine.Snapshot()
	if s.State != session.StateActive {
		return api.ResultOf(errorx.New(errorx.CodeInvalidRequest, "没有进行中的会话"))
	}
	return c.gifts.RequestGift(ctx, giftId, s.PartnerId, message)
}

func (c *Core) AcceptGift(ctx context.Context, requestId string) Result {
	if r := c.requireRole(constants.RoleClient); r != nil {
		return *r
	}
	return c.gifts.AcceptGift(ctx, requestId)
}

func (c *Core) RejectGift(ctx context.Context, requestId, reason string) Result {
	if r := c.requireRole(constants.RoleClient); r != nil {
		return *r
	}
	return c.gifts.RejectGift(ctx, requestId, reason)
}

// SendGift 客户直接送礼给当前会话的对方
func (c *Core) SendGift(ctx context.Context, giftId string) Result {
	if r := c.requireRole(constants.RoleClient); r != nil {
		return *r
	}
	s := c.machine.Snapshot()
	if s.State != session.StateActive {
		return api.ResultOf(errorx.New(errorx.CodeInvalidRequest, "没有进行中的会话"))
	}
	return c.gifts.SendGift(ctx, giftId, s.PartnerId)
}

// CurrentBalance 最近一次确认的余额
func (c *Core) CurrentBalance() int64 {
	b, _ := c.ledger.Balance()
	return b
}

// BalanceMutations 最近的余额变动记录
func (c *Core) BalanceMutations() []gift.Mutation {
	return c.ledger.Mutations()
}

// Close 进行中的会话按主动退出结束（会上报时长），随后停止所有循环并发送最后一次心跳
func (c *Core) Close(ctx context.Context) {
	switch c.machine.Snapshot().State {
	case session.StateSearching, session.StateConnecting, session.StateActive:
		c.machine.EndSession(ctx, true)
	}
	c.machine.Close()
	for _, l := range []*loop.Loop{c.presence, c.pending, c.balance} {
		l.Stop()
	}
	c.chats.CloseAll()
	c.heartbeat.Stop()
	c.cancel()
	zap.L().Info("客户端核心已退出", zap.String("user_id", c.opts.UserId))
}
var _ Backend = (*api.Client)(nil)
