package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

type OrderListFilter struct {
	Page   int
	Limit  int
	Status string
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByMerchantID(ctx context.Context, merchantID int64, f OrderListFilter) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//支払い参照で検索（同じ参照なら同じ注文を返す）
	FindByPaymentReference(ctx context.Context, ref string) (model.Order, bool, error)

	//定期注文のみ（cancelledは含めるかをフラグで制御）
	ListSubscriptionsByMerchantID(ctx context.Context, merchantID int64, includeCancelled bool) ([]model.Order, error)

	//定期注文のステータス・頻度・次回配達日をまとめて更新
	UpdateSubscription(ctx context.Context, orderID int64, fields SubscriptionFields) error

	//次回配達日を過ぎたactiveな定期注文
	ListDueSubscriptions(ctx context.Context, now time.Time) ([]model.Order, error)

	//Ledger用：店舗の注文合計
	SumTotalByMerchantID(ctx context.Context, merchantID int64) (int64, error)
}

type SubscriptionFields struct {
	IsSubscription     bool
	SubscriptionStatus model.SubscriptionStatus
	Frequency          model.SubscriptionFrequency
	NextDeliveryDate   *time.Time
}
