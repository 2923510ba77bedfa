package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type WithdrawalListFilter struct {
	Page   int
	Limit  int
	Status string
}

type WithdrawalRepository interface {
	FindByID(ctx context.Context, id int64) (model.Withdrawal, error)
	Create(ctx context.Context, w model.Withdrawal) (int64, error)
	ListByMerchantID(ctx context.Context, merchantID int64, f WithdrawalListFilter) ([]model.Withdrawal, int64, error)
	ListAdmin(ctx context.Context, f WithdrawalListFilter) ([]model.Withdrawal, int64, error)

	//現在statusがfromのときだけ更新する。対象がなければfalse。
	UpdateStatusIf(ctx context.Context, id int64, from model.WithdrawalStatus, to model.WithdrawalStatus) (bool, error)

	//Ledger用：failed以外の出金合計
	SumNonFailedByMerchantID(ctx context.Context, merchantID int64) (int64, error)

	//pendingの出金があるか（ダッシュボードの表示用）
	HasPendingByMerchantID(ctx context.Context, merchantID int64) (bool, error)
}
