package repository

import (
	"pair_chat_server/internal/model"

	"gorm.io/gorm"
)

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建审计事件 Repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(event *model.SessionEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return wrapDBError(err, "写入会话事件")
	}
	return nil
}

func (r *eventRepository) FindBySession(sessionId string) ([]model.SessionEvent, error) {
	var events []model.SessionEvent
	if err := r.db.Where("session_id = ?", sessionId).Order("id ASC").Find(&events).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话事件 session_id=%s", sessionId)
	}
	return events, nil
}
