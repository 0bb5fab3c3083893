package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"pair_chat_server/internal/config"
)

// KafkaBroker Kafka 实现
// 以 sessionId 作为消息 key，同一会话的事件落在同一分区，保持顺序
type KafkaBroker struct {
	cfg      config.KafkaConfig
	Producer *kafka.Writer
	Consumer *kafka.Reader
}

// NewKafkaBroker 创建 Writer/Reader，连接在首次读写时建立
func NewKafkaBroker(cfg config.KafkaConfig) *KafkaBroker {
	return &KafkaBroker{
		cfg: cfg,
		Producer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.HostPort),
			Topic:                  cfg.EventTopic,
			Balancer:               &kafka.Hash{},
			WriteTimeout:           cfg.Timeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: false,
		},
		Consumer: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        []string{cfg.HostPort},
			Topic:          cfg.EventTopic,
			GroupID:        cfg.GroupID,
			CommitInterval: 0, // 处理完手动提交
			StartOffset:    kafka.FirstOffset,
			MaxWait:        time.Second,
		}),
	}
}

// EnsureTopic 创建主题，已存在时忽略
func (k *KafkaBroker) EnsureTopic() error {
	conn, err := kafka.Dial("tcp", k.cfg.HostPort)
	if err != nil {
		return err
	}
	defer conn.Close()
	partitions := k.cfg.Partition
	if partitions <= 0 {
		partitions = 1
	}
	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             k.cfg.EventTopic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return err
	}
	return nil
}

func (k *KafkaBroker) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return k.Producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.SessionId),
		Value: value,
	})
}

// Start 至少一次投递：处理失败的消息不提交位移，重启后会重新消费
func (k *KafkaBroker) Start(ctx context.Context, h Handler) error {
	for {
		msg, err := k.Consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return ctx.Err()
			}
			zap.L().Error("kafka fetch failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		var ev Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			zap.L().Error("无法解析的会话事件，跳过", zap.ByteString("value", msg.Value), zap.Error(err))
		} else if err := h(ctx, ev); err != nil {
			zap.L().Error("处理会话事件失败", zap.String("key", ev.Key), zap.Error(err))
			continue
		}
		if err := k.Consumer.CommitMessages(ctx, msg); err != nil {
			zap.L().Error("kafka commit failed", zap.Error(err))
		}
	}
}

func (k *KafkaBroker) Close() error {
	var errs []error
	if err := k.Producer.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := k.Consumer.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

var _ Broker = (*KafkaBroker)(nil)
