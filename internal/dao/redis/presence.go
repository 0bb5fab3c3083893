package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"pair_chat_server/pkg/errorx"
)

const presenceOnlineKey = "presence:online"

// PresenceRecord 用户最近一次心跳，新的心跳覆盖旧的
type PresenceRecord struct {
	UserId       string `json:"userId"`
	Role         string `json:"role"`
	ActivityKind string `json:"activityKind"`
	SessionId    string `json:"sessionId,omitempty"`
	Timestamp    int64  `json:"timestamp"` // unix 秒
}

// Presence PresenceStore 的 Redis 实现
// presence:{user} 存最近一次心跳并带 TTL；presence:online 有序集合按心跳时间打分
type Presence struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresence(client *redis.Client, ttl time.Duration) *Presence {
	return &Presence{client: client, ttl: ttl}
}

func presenceKey(userId string) string {
	return "presence:" + userId
}

func (p *Presence) Beat(ctx context.Context, rec PresenceRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "序列化心跳")
	}
	pipe := p.client.TxPipeline()
	pipe.Set(ctx, presenceKey(rec.UserId), raw, p.ttl)
	pipe.ZAdd(ctx, presenceOnlineKey, redis.Z{Score: float64(rec.Timestamp), Member: rec.UserId})
	if _, err := pipe.Exec(ctx); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "写入心跳 user=%s", rec.UserId)
	}
	return nil
}

// Get 没有有效心跳时返回 nil
func (p *Presence) Get(ctx context.Context, userId string) (*PresenceRecord, error) {
	raw, err := p.client.Get(ctx, presenceKey(userId)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "读取心跳 user=%s", userId)
	}
	var rec PresenceRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "解析心跳 user=%s", userId)
	}
	return &rec, nil
}

func (p *Presence) Online(ctx context.Context, now time.Time) ([]PresenceRecord, error) {
	minScore := strconv.FormatInt(now.Add(-p.ttl).Unix(), 10)
	ids, err := p.client.ZRangeByScore(ctx, presenceOnlineKey, &redis.ZRangeBy{Min: minScore, Max: "+inf"}).Result()
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeCacheError, "读取在线列表")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = presenceKey(id)
	}
	vals, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeCacheError, "批量读取心跳")
	}
	out := make([]PresenceRecord, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // 已过期
		}
		var rec PresenceRecord
		if json.Unmarshal([]byte(s), &rec) == nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (p *Presence) Prune(ctx context.Context, now time.Time) error {
	maxScore := "(" + strconv.FormatInt(now.Add(-p.ttl).Unix(), 10)
	if err := p.client.ZRemRangeByScore(ctx, presenceOnlineKey, "-inf", maxScore).Err(); err != nil {
		return errorx.Wrap(err, errorx.CodeCacheError, "清理在线列表")
	}
	return nil
}

var _ PresenceStore = (*Presence)(nil)
