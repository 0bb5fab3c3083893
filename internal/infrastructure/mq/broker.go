// Package mq 会话事件总线
// 支持两种实现：KafkaBroker (分布式)，ChannelBroker (单机，进程内通道)
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pair_chat_server/internal/config"
)

// Event 总线上的一条事件
type Event struct {
	Key        string          `json:"key"` // session.ended | duration.reported | gift.settled
	SessionId  string          `json:"sessionId"`
	ActorId    string          `json:"actorId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewEvent payload 序列化失败时 Payload 为空
func NewEvent(key, sessionId, actorId string, payload any) Event {
	ev := Event{Key: key, SessionId: sessionId, ActorId: actorId, OccurredAt: time.Now()}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			ev.Payload = raw
		}
	}
	return ev
}

// Handler 事件处理函数
type Handler func(ctx context.Context, ev Event) error

// Publisher 业务层只依赖发布能力
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Broker 事件代理
type Broker interface {
	Publisher
	// Start 阻塞消费直到 ctx 取消或 Close
	Start(ctx context.Context, h Handler) error
	// Close 关闭代理资源
	Close() error
}

// New 按 messageMode 创建代理
func New(cfg config.KafkaConfig) (Broker, error) {
	switch cfg.MessageMode {
	case "channel", "":
		return NewChannelBroker(0), nil
	case "kafka":
		return NewKafkaBroker(cfg), nil
	}
	return nil, fmt.Errorf("unsupported messageMode %q", cfg.MessageMode)
}
