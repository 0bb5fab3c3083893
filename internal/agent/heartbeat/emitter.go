// Package heartbeat 定时上报在线状态
// 心跳只是参考信息，失败只记日志，漏掉的一拍由服务端过期处理
package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"pair_chat_server/internal/agent/loop"
	"pair_chat_server/internal/dto/request"
	"pair_chat_server/pkg/constants"
)

// finalBeatTimeout 退出时最后一拍的等待上限
const finalBeatTimeout = 2 * time.Second

// Sender 心跳接口
type Sender interface {
	Heartbeat(ctx context.Context, req request.HeartbeatRequest) error
}

// Emitter 会话中按 active 间隔上报，空闲时按 idle 间隔；idle 为 0 时空闲不上报
type Emitter struct {
	sender Sender
	clock  clockwork.Clock
	active time.Duration
	idle   time.Duration
	loop   *loop.Loop

	mu        sync.Mutex
	sessionId string
}

func NewEmitter(sender Sender, clk clockwork.Clock, active, idle time.Duration) *Emitter {
	e := &Emitter{sender: sender, clock: clk, active: active, idle: idle}
	e.loop = loop.New("heartbeat", clk, e.interval, e.tick)
	return e
}

func (e *Emitter) interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessionId != "" || e.idle <= 0 {
		return e.active
	}
	return e.idle
}

func (e *Emitter) current() request.HeartbeatRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessionId == "" {
		return request.HeartbeatRequest{ActivityKind: constants.ActivityBrowsing}
	}
	return request.HeartbeatRequest{ActivityKind: constants.ActivityVideochat, SessionId: e.sessionId}
}

func (e *Emitter) tick(ctx context.Context) {
	req := e.current()
	for {
		if req.SessionId == "" && e.idle <= 0 {
			return
		}
		e.send(ctx, req)
		// 发送期间活动类型变了，SetActive/SetBrowsing 的 Trigger 被这次在途执行跳过，这里补发
		next := e.current()
		if next == req || ctx.Err() != nil {
			return
		}
		req = next
	}
}

func (e *Emitter) send(ctx context.Context, req request.HeartbeatRequest) {
	if err := e.sender.Heartbeat(ctx, req); err != nil && ctx.Err() == nil {
		zap.L().Warn("心跳失败", zap.String("activity", req.ActivityKind), zap.Error(err))
	}
}

// Start 启动并立即上报一次
func (e *Emitter) Start(ctx context.Context) error {
	if err := e.loop.Start(ctx); err != nil {
		return err
	}
	e.loop.Trigger(ctx)
	return nil
}

// SetActive 进入会话，活动类型切换为 videochat
func (e *Emitter) SetActive(ctx context.Context, sessionId string) {
	e.mu.Lock()
	e.sessionId = sessionId
	e.mu.Unlock()
	e.loop.Trigger(ctx)
}

// SetBrowsing 离开会话，活动类型切回 browsing
func (e *Emitter) SetBrowsing(ctx context.Context) {
	e.mu.Lock()
	changed := e.sessionId != ""
	e.sessionId = ""
	e.mu.Unlock()
	if changed {
		e.loop.Trigger(ctx)
	}
}

// Activity 当前上报内容
func (e *Emitter) Activity() request.HeartbeatRequest {
	return e.current()
}

// Stop 停止循环并尽力同步发送最后一拍 browsing
func (e *Emitter) Stop() {
	e.loop.Stop()
	e.mu.Lock()
	e.sessionId = ""
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), finalBeatTimeout)
	defer cancel()
	e.send(ctx, request.HeartbeatRequest{ActivityKind: constants.ActivityBrowsing})
}
