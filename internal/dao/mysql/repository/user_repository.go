package repository

import (
	"pair_chat_server/internal/model"
	"pair_chat_server/pkg/errorx"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByUuid 按 UUID 查找用户
func (r *userRepository) FindByUuid(uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.First(&user, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 uuid=%s", uuid)
	}
	return &user, nil
}

// FindByUuids 按 UUID 列表查找用户
func (r *userRepository) FindByUuids(uuids []string) ([]model.UserInfo, error) {
	if len(uuids) == 0 {
		return nil, nil
	}
	var users []model.UserInfo
	if err := r.db.Where("uuid IN ?", uuids).Find(&users).Error; err != nil {
		return nil, wrapDBError(err, "批量查询用户")
	}
	return users, nil
}

// Create 创建用户
func (r *userRepository) Create(user *model.UserInfo) error {
	if err := r.db.Create(user).Error; err != nil {
		return wrapDBError(err, "创建用户")
	}
	return nil
}

// Debit 扣款：balance >= amount 才更新，RowsAffected 为 0 说明余额不足（或用户不存在）
func (r *userRepository) Debit(uuid string, amount int64) error {
	res := r.db.Model(&model.UserInfo{}).
		Where("uuid = ? AND balance >= ?", uuid, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "扣款 uuid=%s", uuid)
	}
	if res.RowsAffected == 0 {
		return errorx.Newf(errorx.CodeInsufficientBalance, "余额不足 uuid=%s amount=%d", uuid, amount)
	}
	return nil
}

// Credit 入账
func (r *userRepository) Credit(uuid string, amount int64) error {
	res := r.db.Model(&model.UserInfo{}).
		Where("uuid = ?", uuid).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "入账 uuid=%s", uuid)
	}
	if res.RowsAffected == 0 {
		return errorx.Newf(errorx.CodeNotFound, "用户不存在 uuid=%s", uuid)
	}
	return nil
}

// AddEarnings 累计收益
func (r *userRepository) AddEarnings(uuid string, amount int64) error {
	res := r.db.Model(&model.UserInfo{}).
		Where("uuid = ?", uuid).
		Update("earnings", gorm.Expr("earnings + ?", amount))
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "累计收益 uuid=%s", uuid)
	}
	if res.RowsAffected == 0 {
		return errorx.Newf(errorx.CodeNotFound, "用户不存在 uuid=%s", uuid)
	}
	return nil
}
