package model

import "time"

// UserBlock 屏蔽关系，任一方屏蔽对方后双方不再匹配、聊天和送礼
type UserBlock struct {
	ID        uint      `gorm:"primarykey"`
	UserId    string    `gorm:"column:user_id;uniqueIndex:idx_block_pair;type:varchar(40);not null;comment:发起屏蔽的用户"`
	BlockedId string    `gorm:"column:blocked_id;uniqueIndex:idx_block_pair;index;type:varchar(40);not null;comment:被屏蔽的用户"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (UserBlock) TableName() string {
	return "user_block"
}
