package mq

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"pair_chat_server/pkg/constants"
)

// ErrClosed 代理已关闭
var ErrClosed = errors.New("mq: broker closed")

// ChannelBroker 单机模式，不依赖外部消息队列
type ChannelBroker struct {
	events chan Event
	mu     sync.RWMutex
	closed bool
}

// NewChannelBroker size<=0 时使用 CHANNEL_SIZE
func NewChannelBroker(size int) *ChannelBroker {
	if size <= 0 {
		size = constants.CHANNEL_SIZE
	}
	return &ChannelBroker{events: make(chan Event, size)}
}

// Publish 通道满时阻塞，直到 ctx 取消
func (b *ChannelBroker) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	select {
	case b.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *ChannelBroker) Start(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-b.events:
			if !ok {
				return nil
			}
			if err := h(ctx, ev); err != nil {
				zap.L().Error("处理会话事件失败", zap.String("key", ev.Key), zap.String("session_id", ev.SessionId), zap.Error(err))
			}
		}
	}
}

// Close 之后 Publish 返回 ErrClosed，已入队的事件仍会被 Start 消费完
func (b *ChannelBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
	return nil
}

var _ Broker = (*ChannelBroker)(nil)
