package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

type MerchantGormRepository struct {
	db *gorm.DB
}

func NewMerchantGormRepository(db *gorm.DB) *MerchantGormRepository {
	return &MerchantGormRepository{db: db}
}

func (r *MerchantGormRepository) FindByID(ctx context.Context, id int64) (model.Merchant, error) {
	var m model.Merchant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Merchant{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Merchant{}, err
	}
	return m, nil
}

func (r *MerchantGormRepository) FindByUserID(ctx context.Context, userID int64) (model.Merchant, error) {
	var m model.Merchant
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Merchant{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Merchant{}, err
	}
	return m, nil
}

func (r *MerchantGormRepository) Create(ctx context.Context, m model.Merchant) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return 0, err
	}
	return m.ID, nil
}

// 残高加算（注文計上・出金failed時の戻し）
func (r *MerchantGormRepository) AddBalance(ctx context.Context, id int64, amount int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Merchant{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", amount))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 残高が足りるときだけ減らす
func (r *MerchantGormRepository) DecreaseBalanceIfEnough(ctx context.Context, id int64, amount int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Merchant{}).
		Where("id = ? AND balance >= ?", id, amount).
		Update("balance", gorm.Expr("balance - ?", amount))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

func (r *MerchantGormRepository) UpdateAutoWithdrawalInterval(ctx context.Context, id int64, interval model.AutoWithdrawalInterval) error {
	res := r.db.WithContext(ctx).
		Model(&model.Merchant{}).
		Where("id = ?", id).
		Update("auto_withdrawal_interval", interval)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MerchantGormRepository) SetLastAutoWithdrawalAt(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Merchant{}).
		Where("id = ?", id).
		Update("last_auto_withdrawal_at", at)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MerchantGormRepository) ListAutoWithdrawalEnabled(ctx context.Context) ([]model.Merchant, error) {
	var items []model.Merchant
	err := r.db.WithContext(ctx).
		Where("auto_withdrawal_interval <> ?", model.AutoWithdrawalOff).
		Find(&items).Error
	if err != nil {
		return []model.Merchant{}, err
	}
	return items, nil
}
