// Package redis 提供基于 Redis 的缓存、通知信箱、在线状态与匹配队列
// 使用 github.com/redis/go-redis/v9 作为底层客户端
package redis

import (
	"context"
	"strconv"
	"time"

	"pair_chat_server/internal/config"
	"pair_chat_server/pkg/errorx"

	"github.com/redis/go-redis/v9"
)

// NewClient 按配置创建客户端，不做连通性检查
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Password: cfg.Password,
		DB:       cfg.Db,
		// 连接池配置
		PoolSize:     50,
		MinIdleConns: 10,
	})
}

// Init 创建客户端并 Ping
func Init(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := NewClient(cfg)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "redis ping %s:%d", cfg.Host, cfg.Port)
	}
	return client, nil
}
