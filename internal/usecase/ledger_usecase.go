package usecase

import (
	"context"
	"errors"
	"net/http"

	repo "marketplace/internal/repository"
)

// 残高の全件再計算。正本はmerchants.balance列で、こちらは突合・監査用。
// 注文合計も出金合計もint64の整数（最小通貨単位）なので丸め誤差は出ない。
type LedgerUsecase struct {
	orders      repo.OrderRepository
	withdrawals repo.WithdrawalRepository
	merchants   repo.MerchantRepository
}

func NewLedgerUsecase(orders repo.OrderRepository, withdrawals repo.WithdrawalRepository, merchants repo.MerchantRepository) *LedgerUsecase {
	return &LedgerUsecase{orders: orders, withdrawals: withdrawals, merchants: merchants}
}

// balance = Σ(注文total_amount) − Σ(failed以外の出金amount)
func (u *LedgerUsecase) ComputeBalance(ctx context.Context, merchantID int64) (int64, error) {
	if merchantID <= 0 {
		return 0, NewHTTPError(http.StatusBadRequest, "invalid merchant id")
	}

	if _, err := u.merchants.FindByID(ctx, merchantID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, NewHTTPError(http.StatusNotFound, "not found")
		}
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	revenue, err := u.orders.SumTotalByMerchantID(ctx, merchantID)
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	withdrawn, err := u.withdrawals.SumNonFailedByMerchantID(ctx, merchantID)
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return revenue - withdrawn, nil
}

// pendingの出金があるか。ダッシュボードの表示用の読み取り。
func (u *LedgerUsecase) HasPendingWithdrawal(ctx context.Context, merchantID int64) (bool, error) {
	if merchantID <= 0 {
		return false, NewHTTPError(http.StatusBadRequest, "invalid merchant id")
	}

	has, err := u.withdrawals.HasPendingByMerchantID(ctx, merchantID)
	if err != nil {
		return false, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return has, nil
}

type ReconcileOutput struct {
	MerchantID      int64 `json:"merchant_id"`
	StoredBalance   int64 `json:"stored_balance"`
	ComputedBalance int64 `json:"computed_balance"`
	Consistent      bool  `json:"consistent"`
}

// 正本のbalance列と全件再計算の結果を突合する
func (u *LedgerUsecase) Reconcile(ctx context.Context, merchantID int64) (ReconcileOutput, error) {
	m, err := u.merchants.FindByID(ctx, merchantID)
	if errors.Is(err, repo.ErrNotFound) {
		return ReconcileOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ReconcileOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	computed, err := u.ComputeBalance(ctx, merchantID)
	if err != nil {
		return ReconcileOutput{}, err
	}

	return ReconcileOutput{
		MerchantID:      merchantID,
		StoredBalance:   m.Balance,
		ComputedBalance: computed,
		Consistent:      m.Balance == computed,
	}, nil
}
