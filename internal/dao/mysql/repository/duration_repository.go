package repository

import (
	"pair_chat_server/internal/model"

	"gorm.io/gorm"
)

type durationRepository struct {
	db *gorm.DB
}

// NewDurationRepository 创建时长上报 Repository
func NewDurationRepository(db *gorm.DB) DurationRepository {
	return &durationRepository{db: db}
}

func (r *durationRepository) Create(report *model.DurationReport) error {
	if err := r.db.Create(report).Error; err != nil {
		return wrapDBErrorf(err, "写入时长上报 session_id=%s", report.SessionId)
	}
	return nil
}

func (r *durationRepository) FindBySession(sessionId string) ([]model.DurationReport, error) {
	var reports []model.DurationReport
	if err := r.db.Where("session_id = ?", sessionId).Order("id ASC").Find(&reports).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询时长上报 session_id=%s", sessionId)
	}
	return reports, nil
}
