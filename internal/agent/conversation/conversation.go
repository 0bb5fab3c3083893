// Package conversation 单个会话的消息视图
// 主频道与本角色频道合并成一条有序、去重的消息流，并维护已读状态
package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"pair_chat_server/internal/agent/api"
	"pair_chat_server/internal/agent/loop"
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/model"
	"pair_chat_server/pkg/errorx"
)

// API 聊天接口
type API interface {
	Messages(ctx context.Context, scope string) ([]respond.MessageItem, error)
	SendMessage(ctx context.Context, req request.SendMessageRequest) (*respond.MessageItem, error)
	MarkRead(ctx context.Context, scope string) (*respond.MarkReadRespond, error)
	Conversations(ctx context.Context) ([]respond.ConversationItem, error)
}

// Incoming 新到达且不是自己发出的消息
type Incoming struct {
	Message respond.MessageItem
	Payload model.Payload
}

type Options struct {
	UserId       string
	Role         string
	SyncInterval time.Duration
	CallTimeout  time.Duration
	// OnNew 每轮同步里真正新出现的他人消息，例如收到礼物时提示
	OnNew func(room string, in []Incoming)
}

type Conversation struct {
	api    API
	clock  clockwork.Clock
	opts   Options
	room   string
	scopes []string
	loop   *loop.Loop

	mu           sync.Mutex
	messages     []respond.MessageItem
	ids          map[string]struct{}
	pushed       []respond.MessageItem
	lastSeen     int64
	serverUnread *int64
	open         bool
}

func newConversation(a API, clk clockwork.Clock, opts Options, room string) *Conversation {
	c := &Conversation{
		api:    a,
		clock:  clk,
		opts:   opts,
		room:   room,
		scopes: model.VisibleScopes(room, opts.Role),
		ids:    make(map[string]struct{}),
	}
	c.loop = loop.New("conversation:"+room, clk, loop.Every(opts.SyncInterval), c.syncTick)
	return c
}

func (c *Conversation) Room() string { return c.room }

// Scopes 当前角色可读的频道
func (c *Conversation) Scopes() []string {
	return append([]string(nil), c.scopes...)
}

func (c *Conversation) visible(scope string) bool {
	for _, s := range c.scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Messages 合并后的消息列表
func (c *Conversation) Messages() []respond.MessageItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]respond.MessageItem(nil), c.messages...)
}

// LastSeen 当前用户的最后已读时间（unix ms）
func (c *Conversation) LastSeen() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Unread 优先使用服务端计数
// 没有服务端计数时退化为粗略判断：最后一条消息晚于已读时间且不是自己发的记 1，否则 0，不是真实条数
func (c *Conversation) Unread() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.serverUnread != nil {
		return *c.serverUnread
	}
	if len(c.messages) == 0 {
		return 0
	}
	last := c.messages[len(c.messages)-1]
	if last.CreatedAt > c.lastSeen && last.SenderId != c.opts.UserId {
		return 1
	}
	return 0
}

func (c *Conversation) setServerState(unread *int64, lastSeen int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if unread != nil {
		n := *unread
		c.serverUnread = &n
	}
	if lastSeen > c.lastSeen {
		c.lastSeen = lastSeen
	}
}

// Push 把服务端接口直接返回的消息先放进视图，本角色看不到的频道直接丢弃
func (c *Conversation) Push(msgs ...respond.MessageItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var accepted []respond.MessageItem
	for _, m := range msgs {
		if c.visible(m.RoomScope) {
			accepted = append(accepted, m)
		}
	}
	if len(accepted) == 0 {
		return
	}
	c.pushed = Merge(c.pushed, accepted)
	c.messages = Merge(c.messages, accepted)
	for _, m := range accepted {
		c.ids[m.Id] = struct{}{}
	}
}

// Sync 拉取所有可见频道，整体替换当前列表
// 任一频道失败则本轮放弃，保留旧列表
func (c *Conversation) Sync(ctx context.Context) error {
	channels := make([][]respond.MessageItem, 0, len(c.scopes)+1)
	for _, scope := range c.scopes {
		msgs, err := c.api.Messages(ctx, scope)
		if err != nil {
			return err
		}
		channels = append(channels, msgs)
	}

	c.mu.Lock()
	fetched := Merge(channels...)
	fetchedIds := make(map[string]struct{}, len(fetched))
	for _, m := range fetched {
		fetchedIds[m.Id] = struct{}{}
	}
	// 还没出现在服务端结果里的本地消息继续保留
	var stillPushed []respond.MessageItem
	for _, m := range c.pushed {
		if _, ok := fetchedIds[m.Id]; !ok {
			stillPushed = append(stillPushed, m)
		}
	}
	c.pushed = stillPushed
	merged := Merge(fetched, stillPushed)

	var incoming []Incoming
	for _, m := range Diff(c.ids, merged) {
		if m.SenderId == c.opts.UserId {
			continue
		}
		in := Incoming{Message: m}
		if p, err := model.DecodePayload(m.Type, m.ExtraData); err == nil {
			in.Payload = p
		} else {
			zap.L().Debug("消息附加数据解析失败", zap.String("id", m.Id), zap.String("type", m.Type), zap.Error(err))
		}
		incoming = append(incoming, in)
	}
	c.messages = merged
	c.ids = make(map[string]struct{}, len(merged))
	for _, m := range merged {
		c.ids[m.Id] = struct{}{}
	}
	open := c.open
	if len(incoming) > 0 && !open {
		// 有新消息，服务端计数已过期
		c.serverUnread = nil
	}
	c.mu.Unlock()

	if len(incoming) > 0 {
		if open {
			c.markSeen(ctx)
		}
		if c.opts.OnNew != nil {
			c.opts.OnNew(c.room, incoming)
		}
	}
	return nil
}

func (c *Conversation) syncTick(ctx context.Context) {
	if err := c.Sync(ctx); err != nil && ctx.Err() == nil {
		zap.L().Warn("消息同步失败", zap.String("room", c.room), zap.Error(err))
	}
}

// markSeen 本地立即置为已读，服务端调用尽力而为
func (c *Conversation) markSeen(ctx context.Context) {
	now := c.clock.Now().UnixMilli()
	c.mu.Lock()
	seen := now
	if n := len(c.messages); n > 0 && c.messages[n-1].CreatedAt > seen {
		seen = c.messages[n-1].CreatedAt
	}
	if seen > c.lastSeen {
		c.lastSeen = seen
	}
	zero := int64(0)
	c.serverUnread = &zero
	c.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()
	if _, err := c.api.MarkRead(cctx, c.room); err != nil {
		zap.L().Warn("标记已读失败", zap.String("room", c.room), zap.Error(err))
	}
}

// Open 打开会话：置为已读、立即同步一次并开始轮询
func (c *Conversation) Open(ctx context.Context) error {
	c.mu.Lock()
	c.open = true
	c.mu.Unlock()
	c.markSeen(ctx)
	if err := c.loop.Start(ctx); err != nil {
		return err
	}
	c.loop.Trigger(ctx)
	return nil
}

// Close 停止轮询
func (c *Conversation) Close() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
	c.loop.Stop()
}

func (c *Conversation) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Send 发送文本或表情到主频道，成功后立即出现在列表里并置为已读
func (c *Conversation) Send(ctx context.Context, msgType, body string) api.Result {
	if !model.IsUserSendable(msgType) {
		return api.ResultOf(errorx.New(errorx.CodeInvalidParam, "不支持的消息类型"))
	}
	cctx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()
	item, err := c.api.SendMessage(cctx, request.SendMessageRequest{RoomScope: c.room, Body: body, Type: msgType})
	if err != nil {
		zap.L().Warn("发送消息失败", zap.String("room", c.room), zap.Error(err))
		return api.ResultOf(err)
	}
	c.Push(*item)
	c.markSeen(ctx)
	return api.OK()
}
