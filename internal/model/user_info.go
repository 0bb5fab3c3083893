// Package model 定义数据库实体模型
// 本文件定义用户信息模型，认证由外部服务完成，这里只保存角色和账户数据
package model

import (
	"gorm.io/gorm"
)

// UserInfo 用户信息模型
// 对应数据库 user_info 表
type UserInfo struct {
	gorm.Model

	// Uuid 用户唯一标识，与 JWT 中的 user_id 一致
	Uuid string `gorm:"column:uuid;uniqueIndex;type:varchar(40);comment:用户唯一id"`

	Nickname string `gorm:"column:nickname;type:varchar(20);not null;comment:昵称"`

	// Role model | client
	Role string `gorm:"column:role;type:varchar(10);index;not null;comment:角色"`

	// Balance 虚拟币余额，只通过条件更新修改，保证不为负
	Balance int64 `gorm:"column:balance;not null;default:0;comment:余额"`

	// Earnings 主播累计收益
	Earnings int64 `gorm:"column:earnings;not null;default:0;comment:累计收益"`

	// Status 账号状态
	// 0=正常, 1=禁用
	Status int8 `gorm:"column:status;index;not null;default:0;comment:状态，0.正常，1.禁用"`
}

// TableName 指定表名
func (UserInfo) TableName() string {
	return "user_info"
}
