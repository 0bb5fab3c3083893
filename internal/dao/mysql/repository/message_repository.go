package repository

import (
	"time"

	"pair_chat_server/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 创建消息
func (r *messageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	return nil
}

// FindByScope 频道内消息；limit>0 时只取最新的 limit 条，结果仍按时间升序
func (r *messageRepository) FindByScope(scope string, limit int) ([]model.Message, error) {
	var messages []model.Message
	if limit <= 0 {
		if err := r.db.Where("room_scope = ?", scope).Order("created_at ASC, id ASC").Find(&messages).Error; err != nil {
			return nil, wrapDBErrorf(err, "查询消息 scope=%s", scope)
		}
		return messages, nil
	}
	if err := r.db.Where("room_scope = ?", scope).Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 scope=%s", scope)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// FindLatest 多个频道中最新的一条
func (r *messageRepository) FindLatest(scopes []string) (*model.Message, error) {
	var message model.Message
	if err := r.db.Where("room_scope IN ?", scopes).Order("created_at DESC, id DESC").First(&message).Error; err != nil {
		return nil, wrapDBError(err, "查询最新消息")
	}
	return &message, nil
}

// CountUnread 精确未读数
func (r *messageRepository) CountUnread(scopes []string, userId string, after time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&model.Message{}).
		Where("room_scope IN ? AND sender_id <> ? AND created_at > ?", scopes, userId, after).
		Count(&n).Error
	if err != nil {
		return 0, wrapDBErrorf(err, "统计未读 user=%s", userId)
	}
	return n, nil
}
