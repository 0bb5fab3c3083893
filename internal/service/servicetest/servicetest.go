// Package servicetest 业务层测试共用的内存数据库、miniredis 与事件记录器
package servicetest

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	dao "pair_chat_server/internal/dao/mysql"
	"pair_chat_server/internal/dao/mysql/repository"
	"pair_chat_server/internal/infrastructure/mq"
	"pair_chat_server/internal/model"
)

// NewRepos 每个测试一个独立的内存 sqlite 库
func NewRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	db, err := dao.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewRepositories(db)
}

// NewRedis miniredis 及其客户端
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// SeedUser 写入一个用户
func SeedUser(t *testing.T, repos *repository.Repositories, id, role string, balance int64) {
	t.Helper()
	require.NoError(t, repos.User.Create(&model.UserInfo{Uuid: id, Nickname: id, Role: role, Balance: balance}))
}

// SeedSession 写入一个进行中的会话
func SeedSession(t *testing.T, repos *repository.Repositories, room, modelId, clientId string, startedAt time.Time) {
	t.Helper()
	require.NoError(t, repos.Session.Create(&model.PairSession{
		Uuid:      room,
		ModelId:   modelId,
		ClientId:  clientId,
		State:     model.SessionStateActive,
		StartedAt: startedAt,
	}))
}

// Recorder 记录发布的事件
type Recorder struct {
	mu     sync.Mutex
	events []mq.Event
}

func (r *Recorder) Publish(_ context.Context, ev mq.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Keys 已发布事件的 key，按发布顺序
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, len(r.events))
	for i, ev := range r.events {
		keys[i] = ev.Key
	}
	return keys
}

// Notice 一条被投递的信箱通知
type Notice struct {
	Target    string
	Kind      string
	SessionId string
	Data      any
}

// Notifier 记录信箱投递
type Notifier struct {
	mu      sync.Mutex
	Notices []Notice
}

func (n *Notifier) Publish(_ context.Context, target, kind, sessionId string, data any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notices = append(n.Notices, Notice{Target: target, Kind: kind, SessionId: sessionId, Data: data})
	return nil
}

func (n *Notifier) Sent() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.Notices...)
}
