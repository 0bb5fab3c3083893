package model

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// Gift 礼物目录
type Gift struct {
	gorm.Model
	Uuid     string `gorm:"column:uuid;uniqueIndex;type:varchar(40);not null;comment:礼物id"`
	Name     string `gorm:"column:name;type:varchar(40);not null"`
	Price    int64  `gorm:"column:price;not null;comment:价格"`
	ImageRef string `gorm:"column:image_ref;type:varchar(255)"`
	Enabled  bool   `gorm:"column:enabled;not null;default:true"`
}

func (Gift) TableName() string {
	return "gift"
}

// 礼物请求状态
const (
	GiftRequestPending  = "pending"
	GiftRequestAccepted = "accepted"
	GiftRequestRejected = "rejected"
	GiftRequestExpired  = "expired"
)

// GiftRequest 主播发起的礼物请求，只有接收方（客户）能接受或拒绝
type GiftRequest struct {
	gorm.Model
	Uuid        string `gorm:"column:uuid;uniqueIndex;type:varchar(40);not null;comment:请求id"`
	SessionId   string `gorm:"column:session_id;index;type:varchar(40);not null"`
	RequesterId string `gorm:"column:requester_id;type:varchar(40);not null"`
	RecipientId string `gorm:"column:recipient_id;index;type:varchar(40);not null"`
	GiftId      string `gorm:"column:gift_id;type:varchar(40);not null"`
	Message     string `gorm:"column:message;type:varchar(255)"`

	// SecurityToken 请求方签发的令牌，接收方接受时原样带回
	SecurityToken string `gorm:"column:security_token;type:varchar(512);not null"`
	// TokenHash 令牌摘要，唯一索引防止同一令牌重复使用
	TokenHash string `gorm:"column:token_hash;uniqueIndex;type:char(64);not null"`

	Status       string       `gorm:"column:status;index;type:varchar(10);not null"`
	RejectReason string       `gorm:"column:reject_reason;type:varchar(255)"`
	ExpiresAt    time.Time    `gorm:"column:expires_at;not null"`
	ResolvedAt   sql.NullTime `gorm:"column:resolved_at"`
}

func (GiftRequest) TableName() string {
	return "gift_request"
}

// GiftTransaction 与余额变动在同一事务内创建
// 直接赠送时 GiftRequestId 为空
type GiftTransaction struct {
	ID                    uint      `gorm:"primarykey"`
	Uuid                  string    `gorm:"column:uuid;uniqueIndex;type:varchar(40);not null"`
	GiftRequestId         *string   `gorm:"column:gift_request_id;uniqueIndex;type:varchar(40)"`
	SessionId             string    `gorm:"column:session_id;index;type:varchar(40);not null"`
	SenderId              string    `gorm:"column:sender_id;index;type:varchar(40);not null"`
	RecipientId           string    `gorm:"column:recipient_id;index;type:varchar(40);not null"`
	GiftId                string    `gorm:"column:gift_id;type:varchar(40);not null"`
	Amount                int64     `gorm:"column:amount;not null"`
	SenderBalanceAfter    int64     `gorm:"column:sender_balance_after;not null"`
	RecipientBalanceAfter int64     `gorm:"column:recipient_balance_after;not null"`
	CreatedAt             time.Time `gorm:"column:created_at"`
}

func (GiftTransaction) TableName() string {
	return "gift_transaction"
}
