package repository

import (
	"pair_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type blockRepository struct {
	db *gorm.DB
}

// NewBlockRepository 创建屏蔽关系 Repository
func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{db: db}
}

// Block 重复屏蔽不报错
func (r *blockRepository) Block(userId, blockedId string) error {
	row := model.UserBlock{UserId: userId, BlockedId: blockedId}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return wrapDBErrorf(err, "屏蔽 user=%s blocked=%s", userId, blockedId)
	}
	return nil
}

func (r *blockRepository) Unblock(userId, blockedId string) error {
	err := r.db.Where("user_id = ? AND blocked_id = ?", userId, blockedId).Delete(&model.UserBlock{}).Error
	if err != nil {
		return wrapDBErrorf(err, "取消屏蔽 user=%s blocked=%s", userId, blockedId)
	}
	return nil
}

// Between 任一方向存在屏蔽即为 true
func (r *blockRepository) Between(a, b string) (bool, error) {
	var count int64
	err := r.db.Model(&model.UserBlock{}).
		Where("(user_id = ? AND blocked_id = ?) OR (user_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, wrapDBErrorf(err, "查询屏蔽关系 %s/%s", a, b)
	}
	return count > 0, nil
}

// BlockedBy 用户屏蔽的全部对象
func (r *blockRepository) BlockedBy(userId string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.UserBlock{}).Where("user_id = ?", userId).Order("id").Pluck("blocked_id", &ids).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询屏蔽列表 user=%s", userId)
	}
	return ids, nil
}
