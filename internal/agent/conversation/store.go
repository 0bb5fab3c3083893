package conversation

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"pair_chat_server/internal/dto/respond"
	"pair_chat_server/internal/model"
)

// Store 当前用户的全部会话，每个会话各自加锁
type Store struct {
	api   API
	clock clockwork.Clock
	opts  Options

	mu    sync.Mutex
	rooms map[string]*Conversation
}

func NewStore(a API, clk clockwork.Clock, opts Options) *Store {
	return &Store{api: a, clock: clk, opts: opts, rooms: make(map[string]*Conversation)}
}

// Get 取得会话，不存在时创建
func (s *Store) Get(room string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rooms[room]
	if !ok {
		c = newConversation(s.api, s.clock, s.opts, room)
		s.rooms[room] = c
	}
	return c
}

// Deliver 按频道所属房间分发消息
func (s *Store) Deliver(msgs []respond.MessageItem) {
	byRoom := make(map[string][]respond.MessageItem)
	for _, m := range msgs {
		room, _ := model.ParseScope(m.RoomScope)
		byRoom[room] = append(byRoom[room], m)
	}
	for room, ms := range byRoom {
		s.Get(room).Push(ms...)
	}
}

// RefreshUnread 拉取会话列表，更新服务端未读数和已读时间
func (s *Store) RefreshUnread(ctx context.Context) ([]respond.ConversationItem, error) {
	items, err := s.api.Conversations(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		s.Get(it.RoomName).setServerState(it.UnreadCount, it.LastSeenAt)
	}
	return items, nil
}

// CloseAll 停止所有会话的轮询
func (s *Store) CloseAll() {
	s.mu.Lock()
	rooms := make([]*Conversation, 0, len(s.rooms))
	for _, c := range s.rooms {
		rooms = append(rooms, c)
	}
	s.mu.Unlock()
	for _, c := range rooms {
		c.Close()
	}
}
