package repository

import (
	"time"

	"pair_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type readRepository struct {
	db *gorm.DB
}

// NewReadRepository 创建已读位置 Repository
func NewReadRepository(db *gorm.DB) ReadRepository {
	return &readRepository{db: db}
}

// Upsert (user_id, room_name) 冲突时更新 last_seen_at
func (r *readRepository) Upsert(userId, roomName string, at time.Time) error {
	row := model.ConversationRead{UserId: userId, RoomName: roomName, LastSeenAt: at}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "room_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_seen_at"}),
	}).Create(&row).Error
	if err != nil {
		return wrapDBErrorf(err, "更新已读 user=%s room=%s", userId, roomName)
	}
	return nil
}

func (r *readRepository) Find(userId, roomName string) (*model.ConversationRead, error) {
	var row model.ConversationRead
	if err := r.db.First(&row, "user_id = ? AND room_name = ?", userId, roomName).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询已读 user=%s room=%s", userId, roomName)
	}
	return &row, nil
}
