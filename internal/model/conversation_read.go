package model

import "time"

// ConversationRead 用户在某个房间的已读位置
type ConversationRead struct {
	UserId     string    `gorm:"column:user_id;primaryKey;type:varchar(40)"`
	RoomName   string    `gorm:"column:room_name;primaryKey;type:varchar(40)"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;not null"`
}

func (ConversationRead) TableName() string {
	return "conversation_read"
}
