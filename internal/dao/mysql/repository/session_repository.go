// Package repository 提供数据访问层的具体实现
// 本文件实现 SessionRepository 接口，处理配对会话相关的数据库操作
package repository

import (
	"database/sql"
	"time"

	"pair_chat_server/internal/model"

	"gorm.io/gorm"
)

// sessionRepository SessionRepository 接口的实现
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建 SessionRepository 实例
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create 创建会话
func (r *sessionRepository) Create(session *model.PairSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return wrapDBError(err, "创建会话")
	}
	return nil
}

// FindByUuid 按房间名查找会话
func (r *sessionRepository) FindByUuid(uuid string) (*model.PairSession, error) {
	var session model.PairSession
	if err := r.db.First(&session, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 uuid=%s", uuid)
	}
	return &session, nil
}

// FindActiveByUser 用户当前进行中的会话，最多一个
func (r *sessionRepository) FindActiveByUser(userId string) (*model.PairSession, error) {
	var session model.PairSession
	err := r.db.Where("(model_id = ? OR client_id = ?) AND state = ?", userId, userId, model.SessionStateActive).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询进行中会话 user=%s", userId)
	}
	return &session, nil
}

// FindByUser 用户参与过的会话，用于会话列表
func (r *sessionRepository) FindByUser(userId string, limit int) ([]model.PairSession, error) {
	var sessions []model.PairSession
	q := r.db.Where("model_id = ? OR client_id = ?", userId, userId).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&sessions).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话列表 user=%s", userId)
	}
	return sessions, nil
}

// End 只有 state=active 的行会被更新，并发结束时只有一个调用者返回 true
func (r *sessionRepository) End(uuid, endedBy, reason string, at time.Time) (bool, error) {
	res := r.db.Model(&model.PairSession{}).
		Where("uuid = ? AND state = ?", uuid, model.SessionStateActive).
		Updates(map[string]interface{}{
			"state":      model.SessionStateEnded,
			"end_reason": reason,
			"ended_by":   endedBy,
			"ended_at":   sql.NullTime{Time: at, Valid: true},
		})
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "结束会话 uuid=%s", uuid)
	}
	return res.RowsAffected == 1, nil
}
