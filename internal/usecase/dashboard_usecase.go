package usecase

import (
	"context"
	"errors"
	"net/http"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type DashboardUsecase struct {
	tx repo.TransactionManager
}

func NewDashboardUsecase(tx repo.TransactionManager) *DashboardUsecase {
	return &DashboardUsecase{tx: tx}
}

type DashboardOutput struct {
	MerchantID             int64                        `json:"merchant_id"`
	MerchantName           string                       `json:"merchant_name"`
	Balance                int64                        `json:"balance"`
	TotalRevenue           int64                        `json:"total_revenue"`
	HasPendingWithdrawal   bool                         `json:"has_pending_withdrawal"`
	AutoWithdrawalInterval model.AutoWithdrawalInterval `json:"auto_withdrawal_interval"`
	ActiveOrders           []OrderOutput                `json:"active_orders"`
	Subscriptions          []OrderOutput                `json:"subscriptions"`
	CompletedOrders        []OrderOutput                `json:"completed_orders"`
}

// ダッシュボード表示用の集計。1トランザクションのスナップショットから作る。
// 手動の「Withdraw Funds」を出すかどうかはauto_withdrawal_intervalで
// フロントが判断する（off以外なら出さない）。
func (u *DashboardUsecase) GetDashboard(ctx context.Context, merchantID int64) (DashboardOutput, error) {
	if merchantID <= 0 {
		return DashboardOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out DashboardOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		m, err := r.Merchants().FindByID(ctx, merchantID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		revenue, err := r.Orders().SumTotalByMerchantID(ctx, merchantID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		hasPending, err := r.Withdrawals().HasPendingByMerchantID(ctx, merchantID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orders, _, err := r.Orders().ListByMerchantID(ctx, merchantID, repo.OrderListFilter{Page: 1, Limit: 100})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = DashboardOutput{
			MerchantID:             m.ID,
			MerchantName:           m.Name,
			Balance:                m.Balance,
			TotalRevenue:           revenue,
			HasPendingWithdrawal:   hasPending,
			AutoWithdrawalInterval: m.AutoWithdrawalInterval,
			ActiveOrders:           []OrderOutput{},
			Subscriptions:          []OrderOutput{},
			CompletedOrders:        []OrderOutput{},
		}

		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			oo := toOrderOutput(o, items)

			//定期注文はcancelled以外をまとめて表示
			if o.IsSubscription {
				out.Subscriptions = append(out.Subscriptions, oo)
			}

			switch o.Status {
			case model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusOnTheWay:
				out.ActiveOrders = append(out.ActiveOrders, oo)
			case model.OrderStatusDelivered:
				out.CompletedOrders = append(out.CompletedOrders, oo)
			}
		}
		return nil
	})

	if err != nil {
		return DashboardOutput{}, err
	}
	return out, nil
}
