package mq

import (
	"context"
	"sync"
	"testing"
	"time"

	"pair_chat_server/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelBrokerDeliversInOrder(t *testing.T) {
	b := NewChannelBroker(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	go func() {
		_ = b.Start(ctx, func(_ context.Context, ev Event) error {
			mu.Lock()
			got = append(got, ev.Key)
			n := len(got)
			mu.Unlock()
			if n == 3 {
				close(done)
			}
			return nil
		})
	}()

	require.NoError(t, b.Publish(ctx, NewEvent("session.ended", "room-42", "M1", map[string]string{"reason": "next"})))
	require.NoError(t, b.Publish(ctx, NewEvent("duration.reported", "room-42", "C1", nil)))
	require.NoError(t, b.Publish(ctx, NewEvent("gift.settled", "room-42", "C1", nil)))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events not delivered")
	}
	mu.Lock()
	assert.Equal(t, []string{"session.ended", "duration.reported", "gift.settled"}, got)
	mu.Unlock()
}

func TestChannelBrokerClose(t *testing.T) {
	b := NewChannelBroker(1)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Publish(context.Background(), Event{Key: "x"}), ErrClosed)
	// 关闭后 Start 立即返回
	assert.NoError(t, b.Start(context.Background(), func(context.Context, Event) error { return nil }))
}

func TestNewEventPayload(t *testing.T) {
	ev := NewEvent("gift.settled", "room-42", "C1", map[string]int64{"amount": 80})
	assert.JSONEq(t, `{"amount":80}`, string(ev.Payload))
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestNewSelectsImplementation(t *testing.T) {
	b, err := New(config.KafkaConfig{MessageMode: "channel"})
	require.NoError(t, err)
	_, ok := b.(*ChannelBroker)
	assert.True(t, ok)

	_, err = New(config.KafkaConfig{MessageMode: "nats"})
	assert.Error(t, err)
}
