package conversation

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pair_chat_server/internal/dto/request"
	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/model"
	"pair_chat_server/pkg/constants"
)

type fakeChat struct {
	mu       sync.Mutex
	scopes   map[string][]respond.MessageItem
	fetched  []string
	marked   []string
	nextId   int
	now      func() int64
	unread   map[string]int64
	lastSeen map[string]int64
}

func newFakeChat(now func() int64) *fakeChat {
	return &fakeChat{scopes: make(map[string][]respond.MessageItem), now: now, unread: map[string]int64{}, lastSeen: map[string]int64{}}
}

func (f *fakeChat) add(m respond.MessageItem) {
	f.mu.Lock()
	f.scopes[m.RoomScope] = append(f.scopes[m.RoomScope], m)
	f.mu.Unlock()
}

func (f *fakeChat) Messages(_ context.Context, scope string) ([]respond.MessageItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, scope)
	return append([]respond.MessageItem(nil), f.scopes[scope]...), nil
}

func (f *fakeChat) SendMessage(_ context.Context, req request.SendMessageRequest) (*respond.MessageItem, error) {
	f.mu.Lock()
	f.nextId++
	m := respond.MessageItem{Id: "sent-" + strconv.Itoa(f.nextId), RoomScope: req.RoomScope, SenderId: "m1", Type: req.Type, Body: req.Body, CreatedAt: f.now()}
	f.mu.Unlock()
	f.add(m)
	return &m, nil
}

func (f *fakeChat) MarkRead(_ context.Context, scope string) (*respond.MarkReadRespond, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, scope)
	return &respond.MarkReadRespond{RoomName: scope, LastSeenAt: f.now()}, nil
}

func (f *fakeChat) Conversations(context.Context) ([]respond.ConversationItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []respond.ConversationItem
	for room, n := range f.unread {
		n := n
		items = append(items, respond.ConversationItem{RoomName: room, UnreadCount: &n, LastSeenAt: f.lastSeen[room]})
	}
	return items, nil
}

func giftMessage(t *testing.T, id, scope, sender string, at int64, p model.Payload) respond.MessageItem {
	t.Helper()
	typ, raw, err := model.EncodePayload(p)
	require.NoError(t, err)
	return respond.MessageItem{Id: id, RoomScope: scope, SenderId: sender, Type: typ, ExtraData: json.RawMessage(raw), CreatedAt: at}
}

func newModelStore(t *testing.T, f *fakeChat, clk clockwork.FakeClock, onNew func(string, []Incoming)) *Store {
	t.Helper()
	return NewStore(f, clk, Options{
		UserId:       "m1",
		Role:         constants.RoleModel,
		SyncInterval: 3 * time.Second,
		CallTimeout:  time.Second,
		OnNew:        onNew,
	})
}

func TestModelSeesOnlyItsScope(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	f := newFakeChat(func() int64 { return clk.Now().UnixMilli() })
	gift := model.GiftInfo{GiftId: "g-rose", Name: "玫瑰", Price: 80}
	f.add(respond.MessageItem{Id: "1", RoomScope: "room-42", SenderId: "c1", Type: "text", Body: "hi", CreatedAt: 100})
	f.add(giftMessage(t, "2", "room-42_client", "c1", 200, model.GiftSentPayload{GiftInfo: gift, TransactionId: "tx-1"}))
	f.add(giftMessage(t, "3", "room-42_model", "c1", 200, model.GiftReceivedPayload{GiftInfo: gift, TransactionId: "tx-1"}))

	var got []Incoming
	s := newModelStore(t, f, clk, func(_ string, in []Incoming) { got = append(got, in...) })
	c := s.Get("room-42")
	require.NoError(t, c.Sync(context.Background()))

	assert.Equal(t, []string{"room-42", "room-42_model"}, f.fetched)
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "1", msgs[0].Id)
	assert.Equal(t, "room-42_model", msgs[1].RoomScope)

	require.Len(t, got, 2)
	received, ok := got[1].Payload.(model.GiftReceivedPayload)
	require.True(t, ok)
	assert.EqualValues(t, 80, received.Price)

	// 重复同步不会产生新的提示
	require.NoError(t, c.Sync(context.Background()))
	assert.Len(t, got, 2)
	assert.Equal(t, msgs, c.Messages())
}

func TestOwnMessagesTriggerNothing(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	f := newFakeChat(func() int64 { return clk.Now().UnixMilli() })
	f.add(respond.MessageItem{Id: "1", RoomScope: "room-42", SenderId: "m1", Type: "text", CreatedAt: 100})

	calls := 0
	s := newModelStore(t, f, clk, func(string, []Incoming) { calls++ })
	require.NoError(t, s.Get("room-42").Sync(context.Background()))
	assert.Zero(t, calls)
	assert.Zero(t, s.Get("room-42").Unread())
}

func TestPushKeepsOptimisticMessageUntilServerHasIt(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	f := newFakeChat(func() int64 { return clk.Now().UnixMilli() })
	s := newModelStore(t, f, clk, nil)

	s.Deliver([]respond.MessageItem{
		{Id: "g1", RoomScope: "room-42", SenderId: "m1", Type: "gift_request", CreatedAt: 50},
		{Id: "g2", RoomScope: "room-42_client", SenderId: "m1", Type: "gift_sent", CreatedAt: 60},
	})
	c := s.Get("room-42")
	require.Len(t, c.Messages(), 1)

	require.NoError(t, c.Sync(context.Background()))
	require.Len(t, c.Messages(), 1)
	assert.Equal(t, "g1", c.Messages()[0].Id)

	f.add(respond.MessageItem{Id: "g1", RoomScope: "room-42", SenderId: "m1", Type: "gift_request", CreatedAt: 50})
	f.add(respond.MessageItem{Id: "9", RoomScope: "room-42", SenderId: "c1", Type: "text", CreatedAt: 10})
	require.NoError(t, c.Sync(context.Background()))
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "9", msgs[0].Id)
	assert.Equal(t, "g1", msgs[1].Id)
}

func TestUnreadResetsOnOpenAndSend(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	f := newFakeChat(func() int64 { return clk.Now().UnixMilli() })
	future := clk.Now().Add(time.Minute).UnixMilli()
	f.add(respond.MessageItem{Id: "1", RoomScope: "room-42", SenderId: "c1", Type: "text", CreatedAt: future})
	f.unread["room-42"] = 4

	s := newModelStore(t, f, clk, nil)
	_, err := s.RefreshUnread(context.Background())
	require.NoError(t, err)
	c := s.Get("room-42")
	assert.EqualValues(t, 4, c.Unread())

	require.NoError(t, c.Open(context.Background()))
	t.Cleanup(c.Close)
	assert.Zero(t, c.Unread())
	assert.GreaterOrEqual(t, c.LastSeen(), future)
	assert.Contains(t, f.marked, "room-42")

	// 关闭后又来了消息，服务端计数失效，退化为粗略判断
	c.Close()
	f.add(respond.MessageItem{Id: "2", RoomScope: "room-42", SenderId: "c1", Type: "text", CreatedAt: future + 1000})
	require.NoError(t, c.Sync(context.Background()))
	assert.EqualValues(t, 1, c.Unread())

	clk.Advance(2 * time.Minute)
	res := c.Send(context.Background(), "text", "在吗")
	require.True(t, res.Success)
	assert.Zero(t, c.Unread())
	assert.GreaterOrEqual(t, c.LastSeen(), future+1000)
	assert.Equal(t, "在吗", c.Messages()[len(c.Messages())-1].Body)

	assert.Equal(t, "invalid_param", c.Send(context.Background(), "gift_sent", "x").ErrorKind)
}

func TestOpenStartsPolling(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	f := newFakeChat(func() int64 { return clk.Now().UnixMilli() })
	s := newModelStore(t, f, clk, nil)
	c := s.Get("room-42")

	require.NoError(t, c.Open(context.Background()))
	assert.True(t, c.IsOpen())
	f.mu.Lock()
	initial := len(f.fetched)
	f.mu.Unlock()
	assert.Equal(t, 2, initial)

	f.add(respond.MessageItem{Id: "1", RoomScope: "room-42", SenderId: "c1", Type: "text", CreatedAt: 100})
	clk.BlockUntil(1)
	clk.Advance(3 * time.Second)
	require.Eventually(t, func() bool { return len(c.Messages()) == 1 }, time.Second, time.Millisecond)

	s.CloseAll()
	assert.False(t, c.IsOpen())
}
