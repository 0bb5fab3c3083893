package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pair_chat_server/pkg/errorx"
)

// Notification 信箱中的一条通知
type Notification struct {
	TargetUserId string          `json:"targetUserId"`
	Kind         string          `json:"kind"`
	SessionId    string          `json:"sessionId,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	CreatedAt    int64           `json:"createdAt"` // unix 毫秒
}

// takeScript 按 KEYS 顺序找到第一条存在的通知，GET 与 DEL 在脚本内原子完成
var takeScript = redis.NewScript(`
for _, k in ipairs(KEYS) do
  local v = redis.call('GET', k)
  if v then
    redis.call('DEL', k)
    return v
  end
end
return false
`)

// putScript 同一会话的重复投递是空操作；槽里是别的会话留下的通知时直接覆盖
// KEYS[1] 通知，KEYS[2] 通知所属会话；ARGV: 通知, 会话, ttl 毫秒
var putScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 and redis.call('GET', KEYS[2]) == ARGV[2] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Mailbox MailboxStore 的 Redis 实现
// 每个 (用户, 类型) 一个 key：mailbox:{user}:{kind}，旁边的 :session key 记录所属会话
type Mailbox struct {
	client *redis.Client
	kinds  []string
	ttl    time.Duration
}

// NewMailbox kinds 决定消费顺序
func NewMailbox(client *redis.Client, kinds []string, ttl time.Duration) *Mailbox {
	return &Mailbox{client: client, kinds: kinds, ttl: ttl}
}

func mailboxKey(userId, kind string) string {
	// 花括号为 hash tag，同一用户的各类型 key 落在同一 slot，脚本可在集群下执行
	return fmt.Sprintf("mailbox:{%s}:%s", userId, kind)
}

func signalChannel(userId string) string {
	return "mailbox:signal:" + userId
}

// Put 每个 (用户, 类型) 只保留一条：同一会话重试不会产生第二条，
// 新会话的通知替换上一个会话未被消费的旧通知
func (m *Mailbox) Put(ctx context.Context, n Notification) (bool, error) {
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().UnixMilli()
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return false, errorx.Wrap(err, errorx.CodeServerBusy, "序列化通知")
	}
	key := mailboxKey(n.TargetUserId, n.Kind)
	ok, err := putScript.Run(ctx, m.client, []string{key, key + ":session"}, raw, n.SessionId, m.ttl.Milliseconds()).Bool()
	if err != nil {
		return false, errorx.Wrapf(err, errorx.CodeCacheError, "写入信箱 user=%s kind=%s", n.TargetUserId, n.Kind)
	}
	if ok {
		if err := m.client.Publish(ctx, signalChannel(n.TargetUserId), n.Kind).Err(); err != nil {
			// 信号只是加速推送，轮询仍能取到
			zap.L().Warn("发布信箱信号失败", zap.String("user", n.TargetUserId), zap.Error(err))
		}
	}
	return ok, nil
}

// Take 原子取出
func (m *Mailbox) Take(ctx context.Context, userId string) (*Notification, error) {
	keys := make([]string, len(m.kinds))
	for i, k := range m.kinds {
		keys[i] = mailboxKey(userId, k)
	}
	raw, err := takeScript.Run(ctx, m.client, keys).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "读取信箱 user=%s", userId)
	}
	var n Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "解析信箱通知 user=%s", userId)
	}
	return &n, nil
}

// Signals 订阅新通知信号；返回的 stop 必须调用
func (m *Mailbox) Signals(ctx context.Context, userId string) (<-chan struct{}, func(), error) {
	sub := m.client.Subscribe(ctx, signalChannel(userId))
	// 等待订阅确认，保证之后 Put 的信号不会丢
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, errorx.Wrapf(err, errorx.CodeCacheError, "订阅信箱信号 user=%s", userId)
	}
	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-done:
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	var stopped bool
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		close(done)
		_ = sub.Close()
	}
	return out, stop, nil
}

var _ MailboxStore = (*Mailbox)(nil)
