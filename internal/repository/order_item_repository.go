package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)

	//定期注文の明細差し替え（delete + insert）。total_amountには触らない。
	ReplaceForOrder(ctx context.Context, orderID int64, items []model.OrderItem) error
}
