// Package mailbox 会话进行中轮询个人信箱
// 一次只取出一条通知；拿到通知即视为会话将结束，立刻停止轮询
package mailbox

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"pair_chat_server/internal/agent/loop"
	"pair_chat_server/internal/dto/respond"
)

// Source 信箱接口，服务端读取即消费
type Source interface {
	PollStatus(ctx context.Context) (*respond.StatusUpdateRespond, error)
}

// Backoff 连续 N 次空轮询后间隔增加一个 Step，最多到 Max
type Backoff struct {
	Base time.Duration
	Step time.Duration
	Max  time.Duration
	N    int
}

// Poller 单个会话期间的信箱轮询器
type Poller struct {
	source  Source
	backoff Backoff
	loop    *loop.Loop

	mu       sync.Mutex
	interval time.Duration
	empties  int
	handler  func(respond.NotificationItem)
	cancel   context.CancelFunc
	fired    bool
}

func NewPoller(source Source, clk clockwork.Clock, b Backoff) *Poller {
	if b.N <= 0 {
		b.N = 3
	}
	if b.Max < b.Base {
		b.Max = b.Base
	}
	p := &Poller{source: source, backoff: b, interval: b.Base}
	p.loop = loop.New("mailbox", clk, p.Interval, p.poll)
	return p
}

// Interval 当前轮询间隔
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Start 开始轮询，handler 在拿到通知时被调用且只调用一次
func (p *Poller) Start(ctx context.Context, handler func(respond.NotificationItem)) error {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.handler = handler
	p.cancel = cancel
	p.interval = p.backoff.Base
	p.empties = 0
	p.fired = false
	p.mu.Unlock()
	if err := p.loop.Start(ctx); err != nil {
		cancel()
		return err
	}
	return nil
}

// Stop 停止轮询；进行中的请求随 ctx 一起取消
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.loop.Stop()
}

// Running 是否仍在轮询
func (p *Poller) Running() bool {
	return p.loop.Running()
}

func (p *Poller) poll(ctx context.Context) {
	resp, err := p.source.PollStatus(ctx)
	if err != nil {
		// 轮询失败不计入空轮询，也不影响会话状态，下一拍再试
		if ctx.Err() == nil {
			zap.L().Warn("信箱轮询失败", zap.Error(err))
		}
		return
	}

	p.mu.Lock()
	if p.fired || ctx.Err() != nil {
		p.mu.Unlock()
		return
	}
	if resp == nil || !resp.HasNotification || resp.Notification == nil {
		p.empties++
		if p.empties >= p.backoff.N {
			p.empties = 0
			p.interval += p.backoff.Step
			if p.interval > p.backoff.Max {
				p.interval = p.backoff.Max
			}
		}
		p.mu.Unlock()
		return
	}

	p.fired = true
	p.empties = 0
	p.interval = p.backoff.Base
	handler, cancel := p.handler, p.cancel
	p.mu.Unlock()

	cancel()
	zap.L().Info("收到信箱通知，停止轮询", zap.String("kind", resp.Notification.Kind))
	if handler != nil {
		handler(*resp.Notification)
	}
}
