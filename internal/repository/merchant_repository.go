package repository

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
)

type MerchantRepository interface {
	FindByID(ctx context.Context, id int64) (model.Merchant, error)
	FindByUserID(ctx context.Context, userID int64) (model.Merchant, error)
	Create(ctx context.Context, m model.Merchant) (int64, error)

	//残高加算（注文計上・出金failed時の戻し）
	AddBalance(ctx context.Context, id int64, amount int64) error

	//残高が足りるときだけ減らす。足りなければfalse。
	DecreaseBalanceIfEnough(ctx context.Context, id int64, amount int64) (bool, error)

	UpdateAutoWithdrawalInterval(ctx context.Context, id int64, interval model.AutoWithdrawalInterval) error
	SetLastAutoWithdrawalAt(ctx context.Context, id int64, at time.Time) error

	//自動出金が有効な店舗（interval != off）
	ListAutoWithdrawalEnabled(ctx context.Context) ([]model.Merchant, error)
}
