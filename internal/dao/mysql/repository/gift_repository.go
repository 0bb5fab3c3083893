package repository

import (
	"database/sql"
	"time"

	"pair_chat_server/internal/model"

	"gorm.io/gorm"
)

type giftRepository struct {
	db *gorm.DB
}

// NewGiftRepository 创建礼物目录 Repository
func NewGiftRepository(db *gorm.DB) GiftRepository {
	return &giftRepository{db: db}
}

func (r *giftRepository) FindEnabled() ([]model.Gift, error) {
	var gifts []model.Gift
	if err := r.db.Where("enabled = ?", true).Order("price ASC, id ASC").Find(&gifts).Error; err != nil {
		return nil, wrapDBError(err, "查询礼物目录")
	}
	return gifts, nil
}

func (r *giftRepository) FindByUuid(uuid string) (*model.Gift, error) {
	var gift model.Gift
	if err := r.db.First(&gift, "uuid = ? AND enabled = ?", uuid, true).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询礼物 uuid=%s", uuid)
	}
	return &gift, nil
}

func (r *giftRepository) Create(gift *model.Gift) error {
	if err := r.db.Create(gift).Error; err != nil {
		return wrapDBError(err, "创建礼物")
	}
	return nil
}

type giftRequestRepository struct {
	db *gorm.DB
}

// NewGiftRequestRepository 创建礼物请求 Repository
func NewGiftRequestRepository(db *gorm.DB) GiftRequestRepository {
	return &giftRequestRepository{db: db}
}

func (r *giftRequestRepository) Create(req *model.GiftRequest) error {
	if err := r.db.Create(req).Error; err != nil {
		return wrapDBError(err, "创建礼物请求")
	}
	return nil
}

func (r *giftRequestRepository) FindByUuid(uuid string) (*model.GiftRequest, error) {
	var req model.GiftRequest
	if err := r.db.First(&req, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询礼物请求 uuid=%s", uuid)
	}
	return &req, nil
}

func (r *giftRequestRepository) FindPending(recipientId, sessionId string, now time.Time) ([]model.GiftRequest, error) {
	var reqs []model.GiftRequest
	q := r.db.Where("recipient_id = ? AND status = ? AND expires_at > ?", recipientId, model.GiftRequestPending, now)
	if sessionId != "" {
		q = q.Where("session_id = ?", sessionId)
	}
	if err := q.Order("created_at ASC").Find(&reqs).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询待处理礼物请求 recipient=%s", recipientId)
	}
	return reqs, nil
}

// Transition 条件更新，保证一个请求最多被处理一次
func (r *giftRequestRepository) Transition(uuid, from, to, reason string, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":      to,
		"resolved_at": sql.NullTime{Time: at, Valid: true},
	}
	if reason != "" {
		updates["reject_reason"] = reason
	}
	res := r.db.Model(&model.GiftRequest{}).
		Where("uuid = ? AND status = ?", uuid, from).
		Updates(updates)
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "更新礼物请求状态 uuid=%s", uuid)
	}
	return res.RowsAffected == 1, nil
}

type giftTransactionRepository struct {
	db *gorm.DB
}

// NewGiftTransactionRepository 创建礼物流水 Repository
func NewGiftTransactionRepository(db *gorm.DB) GiftTransactionRepository {
	return &giftTransactionRepository{db: db}
}

func (r *giftTransactionRepository) Create(tx *model.GiftTransaction) error {
	if err := r.db.Create(tx).Error; err != nil {
		return wrapDBError(err, "创建礼物流水")
	}
	return nil
}

func (r *giftTransactionRepository) FindBySession(sessionId string) ([]model.GiftTransaction, error) {
	var txs []model.GiftTransaction
	if err := r.db.Where("session_id = ?", sessionId).Order("id ASC").Find(&txs).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询礼物流水 session_id=%s", sessionId)
	}
	return txs, nil
}
