package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"pair_chat_server/pkg/errorx"
)

// popOrEnqueueScript KEYS[1] 对方角色等待队列，KEYS[2] 自己角色等待队列
// 先进先出取一个对方；取不到则把自己加入等待队列（已在队列中时保留原排队时间）
var popOrEnqueueScript = redis.NewScript(`
local c = redis.call('ZRANGE', KEYS[1], 0, 0)
if #c > 0 then
  redis.call('ZREM', KEYS[1], c[1])
  redis.call('ZREM', KEYS[2], ARGV[1])
  return c[1]
end
redis.call('ZADD', KEYS[2], 'NX', ARGV[2], ARGV[1])
return false
`)

// MatchStore MatchQueue 的 Redis 实现
type MatchStore struct {
	client    *redis.Client
	resultTTL time.Duration
}

func NewMatchStore(client *redis.Client, resultTTL time.Duration) *MatchStore {
	return &MatchStore{client: client, resultTTL: resultTTL}
}

func waitingKey(role string) string {
	return "match:{waiting}:" + role
}

func resultKey(userId string) string {
	return "match:result:" + userId
}

func (m *MatchStore) PopOrEnqueue(ctx context.Context, userId, role, oppositeRole string, now time.Time) (string, error) {
	partner, err := popOrEnqueueScript.Run(ctx, m.client,
		[]string{waitingKey(oppositeRole), waitingKey(role)},
		userId, now.UnixMilli()).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "匹配队列 user=%s", userId)
	}
	return partner, nil
}

func (m *MatchStore) Cancel(ctx context.Context, userId, role string) error {
	if err := m.client.ZRem(ctx, waitingKey(role), userId).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "退出匹配 user=%s", userId)
	}
	return nil
}

func (m *MatchStore) SetResult(ctx context.Context, userId, roomName string) error {
	if err := m.client.Set(ctx, resultKey(userId), roomName, m.resultTTL).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "保存匹配结果 user=%s", userId)
	}
	return nil
}

func (m *MatchStore) TakeResult(ctx context.Context, userId string) (string, error) {
	room, err := m.client.GetDel(ctx, resultKey(userId)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "读取匹配结果 user=%s", userId)
	}
	return room, nil
}

var _ MatchQueue = (*MatchStore)(nil)
