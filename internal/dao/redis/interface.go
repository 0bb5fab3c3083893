// Package redis 定义缓存与各类 Redis 存储的接口
// Service 层依赖这些接口而非具体实现，测试时可替换
package redis

import (
	"context"
	"time"
)

// CacheService 缓存服务接口
type CacheService interface {
	// Set 设置键值对并指定过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 获取键对应的值（键不存在返回空字符串和 nil）
	Get(ctx context.Context, key string) (string, error)
	// Delete 删除键（如果存在）
	Delete(ctx context.Context, key string) error
}

// AsyncCacheService 异步缓存服务接口
// 提供异步任务提交能力，用于非阻塞缓存更新
type AsyncCacheService interface {
	CacheService
	// SubmitTask 提交异步缓存任务
	SubmitTask(action func())
}

// MailboxStore 单槽通知信箱：每个 (用户, 类型) 最多一条待消费通知
type MailboxStore interface {
	// Put 写入通知；同一会话已有同类型待消费通知时不覆盖，返回 false。
	// 其他会话遗留的同类型通知会被替换
	Put(ctx context.Context, n Notification) (bool, error)
	// Take 原子地取出并删除一条通知，没有时返回 nil
	Take(ctx context.Context, userId string) (*Notification, error)
	// Signals 订阅某用户的新通知信号
	Signals(ctx context.Context, userId string) (<-chan struct{}, func(), error)
}

// PresenceStore 在线状态
type PresenceStore interface {
	Beat(ctx context.Context, rec PresenceRecord) error
	Get(ctx context.Context, userId string) (*PresenceRecord, error)
	// Online 最近一次心跳仍在有效期内的用户
	Online(ctx context.Context, now time.Time) ([]PresenceRecord, error)
	// Prune 清理过期的在线索引
	Prune(ctx context.Context, now time.Time) error
}

// MatchQueue 匹配队列
type MatchQueue interface {
	// PopOrEnqueue 取出一个等待中的对方角色用户；没有则把自己加入等待队列，返回空串
	PopOrEnqueue(ctx context.Context, userId, role, oppositeRole string, now time.Time) (string, error)
	Cancel(ctx context.Context, userId, role string) error
	// SetResult 为等待方保存匹配结果
	SetResult(ctx context.Context, userId, roomName string) error
	// TakeResult 取出匹配结果，没有时返回空串
	TakeResult(ctx context.Context, userId string) (string, error)
}
