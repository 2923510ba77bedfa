package repository

import (
	"context"
	"errors"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

type WithdrawalGormRepository struct {
	db *gorm.DB
}

func NewWithdrawalGormRepository(db *gorm.DB) *WithdrawalGormRepository {
	return &WithdrawalGormRepository{db: db}
}

func (r *WithdrawalGormRepository) FindByID(ctx context.Context, id int64) (model.Withdrawal, error) {
	var w model.Withdrawal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Withdrawal{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Withdrawal{}, err
	}
	return w, nil
}

func (r *WithdrawalGormRepository) Create(ctx context.Context, w model.Withdrawal) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&w).Error; err != nil {
		return 0, err
	}
	return w.ID, nil
}

func (r *WithdrawalGormRepository) ListByMerchantID(ctx context.Context, merchantID int64, f repo.WithdrawalListFilter) ([]model.Withdrawal, int64, error) {
	return r.list(ctx, f, r.db.WithContext(ctx).Model(&model.Withdrawal{}).Where("merchant_id = ?", merchantID))
}

func (r *WithdrawalGormRepository) ListAdmin(ctx context.Context, f repo.WithdrawalListFilter) ([]model.Withdrawal, int64, error) {
	return r.list(ctx, f, r.db.WithContext(ctx).Model(&model.Withdrawal{}))
}

func (r *WithdrawalGormRepository) list(ctx context.Context, f repo.WithdrawalListFilter, q *gorm.DB) ([]model.Withdrawal, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Withdrawal{}, 0, err
	}

	var items []model.Withdrawal
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("created_at desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Withdrawal{}, 0, err
	}

	return items, total, nil
}

// 現在statusがfromのときだけ更新。二重承認の防止。
func (r *WithdrawalGormRepository) UpdateStatusIf(ctx context.Context, id int64, from model.WithdrawalStatus, to model.WithdrawalStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Withdrawal{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

func (r *WithdrawalGormRepository) SumNonFailedByMerchantID(ctx context.Context, merchantID int64) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&model.Withdrawal{}).
		Where("merchant_id = ? AND status <> ?", merchantID, model.WithdrawalStatusFailed).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *WithdrawalGormRepository) HasPendingByMerchantID(ctx context.Context, merchantID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Withdrawal{}).
		Where("merchant_id = ? AND status = ?", merchantID, model.WithdrawalStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
