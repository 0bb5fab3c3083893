package model

import (
	"time"

	"gorm.io/datatypes"
)

// SessionEvent 会话事件审计日志，由事件总线的投影写入
type SessionEvent struct {
	ID         uint           `gorm:"primarykey"`
	EventKey   string         `gorm:"column:event_key;index;type:varchar(40);not null"`
	SessionId  string         `gorm:"column:session_id;index;type:varchar(40)"`
	ActorId    string         `gorm:"column:actor_id;type:varchar(40)"`
	Payload    datatypes.JSON `gorm:"column:payload"`
	OccurredAt time.Time      `gorm:"column:occurred_at;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
}

func (SessionEvent) TableName() string {
	return "session_event"
}
