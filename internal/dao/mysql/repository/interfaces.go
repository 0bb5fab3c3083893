// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的文件中
package repository

import (
	"context"
	"time"

	"pair_chat_server/internal/model"

	"gorm.io/gorm"
)

// ==================== Repository 接口定义 ====================

// UserRepository 用户与账户余额
type UserRepository interface {
	FindByUuid(uuid string) (*model.UserInfo, error)
	FindByUuids(uuids []string) ([]model.UserInfo, error)
	Create(user *model.UserInfo) error
	// Debit 条件扣款，余额不足时不做任何修改并返回 CodeInsufficientBalance
	Debit(uuid string, amount int64) error
	// Credit 入账
	Credit(uuid string, amount int64) error
	// AddEarnings 累计主播收益
	AddEarnings(uuid string, amount int64) error
}

// SessionRepository 配对会话
type SessionRepository interface {
	Create(session *model.PairSession) error
	FindByUuid(uuid string) (*model.PairSession, error)
	// FindActiveByUser 查找用户当前进行中的会话
	FindActiveByUser(userId string) (*model.PairSession, error)
	// FindByUser 用户参与过的会话，按开始时间倒序
	FindByUser(userId string, limit int) ([]model.PairSession, error)
	// End 条件更新 active -> ended，返回本次调用是否完成了结束
	End(uuid, endedBy, reason string, at time.Time) (bool, error)
}

// DurationRepository 时长上报
type DurationRepository interface {
	// Create 同一 (session_id, epoch) 重复插入返回 CodeDuplicateRequest
	Create(report *model.DurationReport) error
	FindBySession(sessionId string) ([]model.DurationReport, error)
}

// GiftRepository 礼物目录
type GiftRepository interface {
	FindEnabled() ([]model.Gift, error)
	FindByUuid(uuid string) (*model.Gift, error)
	Create(gift *model.Gift) error
}

// GiftRequestRepository 礼物请求
type GiftRequestRepository interface {
	// Create 令牌摘要重复时返回 CodeDuplicateRequest
	Create(req *model.GiftRequest) error
	FindByUuid(uuid string) (*model.GiftRequest, error)
	// FindPending 接收方未过期的待处理请求，sessionId 为空时不过滤会话
	FindPending(recipientId, sessionId string, now time.Time) ([]model.GiftRequest, error)
	// Transition 条件更新状态，返回是否由本次调用完成
	Transition(uuid, from, to, reason string, at time.Time) (bool, error)
}

// GiftTransactionRepository 礼物交易流水
type GiftTransactionRepository interface {
	Create(tx *model.GiftTransaction) error
	FindBySession(sessionId string) ([]model.GiftTransaction, error)
}

// MessageRepository 聊天消息
type MessageRepository interface {
	Create(message *model.Message) error
	// FindByScope 按 created_at, id 升序返回频道内消息
	FindByScope(scope string, limit int) ([]model.Message, error)
	// FindLatest 多个频道中最新的一条消息
	FindLatest(scopes []string) (*model.Message, error)
	// CountUnread 频道中 after 之后、非 userId 发送的消息数
	CountUnread(scopes []string, userId string, after time.Time) (int64, error)
}

// ReadRepository 会话已读位置
type ReadRepository interface {
	Upsert(userId, roomName string, at time.Time) error
	Find(userId, roomName string) (*model.ConversationRead, error)
}

// EventRepository 会话事件审计
type EventRepository interface {
	Create(event *model.SessionEvent) error
	FindBySession(sessionId string) ([]model.SessionEvent, error)
}

// BlockRepository 屏蔽关系
type BlockRepository interface {
	Block(userId, blockedId string) error
	Unblock(userId, blockedId string) error
	// Between 任一方向屏蔽都算
	Between(a, b string) (bool, error)
	BlockedBy(userId string) ([]string, error)
}

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db          *gorm.DB
	User        UserRepository
	Session     SessionRepository
	Duration    DurationRepository
	Gift        GiftRepository
	GiftRequest GiftRequestRepository
	GiftTx      GiftTransactionRepository
	Message     MessageRepository
	Read        ReadRepository
	Event       EventRepository
	Block       BlockRepository
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:          db,
		User:        NewUserRepository(db),
		Session:     NewSessionRepository(db),
		Duration:    NewDurationRepository(db),
		Gift:        NewGiftRepository(db),
		GiftRequest: NewGiftRequestRepository(db),
		GiftTx:      NewGiftTransactionRepository(db),
		Message:     NewMessageRepository(db),
		Read:        NewReadRepository(db),
		Event:       NewEventRepository(db),
		Block:       NewBlockRepository(db),
	}
}

// WithContext 返回绑定 ctx 的 Repositories，请求取消时 SQL 随之取消
func (r *Repositories) WithContext(ctx context.Context) *Repositories {
	return NewRepositories(r.db.WithContext(ctx))
}

// Transaction 在数据库事务中执行函数
// fn 返回错误时整个事务回滚
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
