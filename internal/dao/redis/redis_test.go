package redis

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

var kinds = []string{"partner_went_next", "partner_left_session"}

func TestMailboxAtMostOnePendingPerKind(t *testing.T) {
	_, client := newTestClient(t)
	mb := NewMailbox(client, kinds, time.Minute)
	ctx := context.Background()

	ok, err := mb.Put(ctx, Notification{TargetUserId: "C1", Kind: "partner_left_session", Data: json.RawMessage(`{"reason":"a"}`)})
	require.NoError(t, err)
	assert.True(t, ok)

	// 生产方重试不会覆盖
	ok, err = mb.Put(ctx, Notification{TargetUserId: "C1", Kind: "partner_left_session", Data: json.RawMessage(`{"reason":"b"}`)})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = mb.Put(ctx, Notification{TargetUserId: "C1", Kind: "partner_went_next"})
	require.NoError(t, err)
	assert.True(t, ok)

	// 按固定顺序消费
	n, err := mb.Take(ctx, "C1")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "partner_went_next", n.Kind)

	n, err = mb.Take(ctx, "C1")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "partner_left_session", n.Kind)
	assert.JSONEq(t, `{"reason":"a"}`, string(n.Data))

	n, err = mb.Take(ctx, "C1")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestMailboxReplacesEventFromOlderSession(t *testing.T) {
	_, client := newTestClient(t)
	mb := NewMailbox(client, kinds, time.Minute)
	ctx := context.Background()

	ok, err := mb.Put(ctx, Notification{TargetUserId: "B", Kind: "partner_went_next", SessionId: "room-1"})
	require.NoError(t, err)
	assert.True(t, ok)

	// room-1 的通知没被消费，room-2 的同类通知替换它
	ok, err = mb.Put(ctx, Notification{TargetUserId: "B", Kind: "partner_went_next", SessionId: "room-2"})
	require.NoError(t, err)
	assert.True(t, ok)

	// room-2 的重试仍是空操作
	ok, err = mb.Put(ctx, Notification{TargetUserId: "B", Kind: "partner_went_next", SessionId: "room-2"})
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := mb.Take(ctx, "B")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "room-2", n.SessionId)

	n, err = mb.Take(ctx, "B")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestMailboxConcurrentTakeDeliversOnce(t *testing.T) {
	_, client := newTestClient(t)
	mb := NewMailbox(client, kinds, time.Minute)
	ctx := context.Background()
	_, err := mb.Put(ctx, Notification{TargetUserId: "M1", Kind: "partner_went_next"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	got := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := mb.Take(ctx, "M1")
			assert.NoError(t, err)
			if n != nil {
				mu.Lock()
				got++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, got)
}

func TestMailboxSignals(t *testing.T) {
	_, client := newTestClient(t)
	mb := NewMailbox(client, kinds, time.Minute)
	ctx := context.Background()

	signals, stop, err := mb.Signals(ctx, "C1")
	require.NoError(t, err)
	defer stop()

	_, err = mb.Put(ctx, Notification{TargetUserId: "C1", Kind: "partner_went_next"})
	require.NoError(t, err)

	select {
	case <-signals:
	case <-time.After(2 * time.Second):
		t.Fatal("no signal received")
	}
}

func TestMailboxExpires(t *testing.T) {
	mr, client := newTestClient(t)
	mb := NewMailbox(client, kinds, time.Minute)
	ctx := context.Background()
	_, err := mb.Put(ctx, Notification{TargetUserId: "C1", Kind: "partner_went_next"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	n, err := mb.Take(ctx, "C1")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestPresence(t *testing.T) {
	mr, client := newTestClient(t)
	p := NewPresence(client, 45*time.Second)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	require.NoError(t, p.Beat(ctx, PresenceRecord{UserId: "M1", Role: "model", ActivityKind: "videochat", SessionId: "room-42", Timestamp: now.Unix()}))
	require.NoError(t, p.Beat(ctx, PresenceRecord{UserId: "C1", Role: "client", ActivityKind: "browsing", Timestamp: now.Add(-time.Minute).Unix()}))

	rec, err := p.Get(ctx, "M1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "room-42", rec.SessionId)

	online, err := p.Online(ctx, now)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "M1", online[0].UserId)

	require.NoError(t, p.Prune(ctx, now))
	members, err := client.ZRange(ctx, presenceOnlineKey, 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"M1"}, members)

	// 心跳过期后视为离线
	mr.FastForward(time.Minute)
	rec, err = p.Get(ctx, "M1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMatchQueue(t *testing.T) {
	_, client := newTestClient(t)
	q := NewMatchStore(client, time.Minute)
	ctx := context.Background()
	now := time.Now()

	partner, err := q.PopOrEnqueue(ctx, "M1", "model", "client", now)
	require.NoError(t, err)
	assert.Empty(t, partner)

	partner, err = q.PopOrEnqueue(ctx, "M2", "model", "client", now.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, partner)

	// 先来先配
	partner, err = q.PopOrEnqueue(ctx, "C1", "client", "model", now.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "M1", partner)

	require.NoError(t, q.Cancel(ctx, "M2", "model"))
	partner, err = q.PopOrEnqueue(ctx, "C2", "client", "model", now.Add(3*time.Second))
	require.NoError(t, err)
	assert.Empty(t, partner)

	require.NoError(t, q.SetResult(ctx, "M1", "room-42"))
	room, err := q.TakeResult(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, "room-42", room)
	room, err = q.TakeResult(ctx, "M1")
	require.NoError(t, err)
	assert.Empty(t, room)
}

func TestRedisCacheTasks(t *testing.T) {
	_, client := newTestClient(t)
	rc := NewRedisCache(client, 2, 4)
	ctx := context.Background()

	done := make(chan struct{})
	rc.SubmitTask(func() {
		_ = rc.Set(ctx, "k", "v", time.Minute)
		close(done)
	})
	<-done
	v, err := rc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, rc.Delete(ctx, "k"))
	v, err = rc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, v)

	rc.Close()
	ran := false
	rc.SubmitTask(func() { ran = true })
	assert.True(t, ran)
}
