// Package model 定义数据库实体模型
// 本文件定义配对会话模型
package model

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// 会话状态
const (
	SessionStateActive = "active"
	SessionStateEnded  = "ended"
)

// 结束原因，记录发起方视角
const (
	EndReasonNext  = "next"  // 发起方跳过，对方收到 partner_went_next
	EndReasonLeave = "leave" // 发起方离开，对方收到 partner_left_session
)

// PairSession 一次主播与客户的配对会话
// 对应数据库 pair_session 表，Uuid 即房间名
type PairSession struct {
	gorm.Model

	Uuid     string `gorm:"column:uuid;uniqueIndex;type:varchar(40);not null;comment:房间名"`
	ModelId  string `gorm:"column:model_id;index;type:varchar(40);not null;comment:主播uuid"`
	ClientId string `gorm:"column:client_id;index;type:varchar(40);not null;comment:客户uuid"`

	// State active | ended，结束只能通过条件更新完成一次
	State     string `gorm:"column:state;type:varchar(10);index;not null;comment:状态"`
	EndReason string `gorm:"column:end_reason;type:varchar(20);comment:结束原因"`
	EndedBy   string `gorm:"column:ended_by;type:varchar(40);comment:结束发起人"`

	StartedAt time.Time    `gorm:"column:started_at;not null;comment:开始时间"`
	EndedAt   sql.NullTime `gorm:"column:ended_at;comment:结束时间"`
}

// TableName 指定表名
func (PairSession) TableName() string {
	return "pair_session"
}

// Partner 返回 userId 的对方；不是参与者时 ok 为 false
func (s *PairSession) Partner(userId string) (partner string, ok bool) {
	switch userId {
	case s.ModelId:
		return s.ClientId, true
	case s.ClientId:
		return s.ModelId, true
	}
	return "", false
}

// RoleOf 返回参与者的角色
func (s *PairSession) RoleOf(userId string) string {
	switch userId {
	case s.ModelId:
		return "model"
	case s.ClientId:
		return "client"
	}
	return ""
}
