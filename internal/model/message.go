// Package model 定义数据库实体模型
// 本文件定义聊天消息模型
package model

import (
	"time"

	"gorm.io/datatypes"
)

// 消息类型
const (
	MessageText         = "text"
	MessageGiftRequest  = "gift_request"
	MessageGiftSent     = "gift_sent"
	MessageGiftReceived = "gift_received"
	MessageEmoji        = "emoji"
)

// Message 消息模型，创建后不可修改
// RoomScope 是消息所在的频道：房间本身，或 房间_client / 房间_model 两个角色专属频道
type Message struct {
	// Id 雪花 ID
	Id        int64  `gorm:"column:id;primaryKey;autoIncrement:false;comment:消息雪花ID"`
	RoomName  string `gorm:"column:room_name;index;type:varchar(40);not null;comment:房间名"`
	RoomScope string `gorm:"column:room_scope;index:idx_message_scope_time;type:varchar(48);not null;comment:频道"`
	SenderId  string `gorm:"column:sender_id;index;type:varchar(40);not null;comment:发送者uuid"`
	Type      string `gorm:"column:type;type:varchar(20);not null;comment:消息类型"`
	Body      string `gorm:"column:body;type:TEXT;comment:消息内容"`

	// ExtraData 按 Type 区分的附加数据，见 payload.go
	ExtraData datatypes.JSON `gorm:"column:extra_data;comment:附加数据"`

	CreatedAt time.Time `gorm:"column:created_at;index:idx_message_scope_time;not null"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}
