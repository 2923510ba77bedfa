package usecase_test

import (
	"context"
	"testing"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLedgerUsecase_ComputeBalance(t *testing.T) {
	orders := new(OrderRepoMock)
	withdrawals := new(WithdrawalRepoMock)
	merchants := new(MerchantRepoMock)

	merchants.On("FindByID", mock.Anything, int64(1)).Return(model.Merchant{ID: 1}, nil)
	orders.On("SumTotalByMerchantID", mock.Anything, int64(1)).Return(int64(12000), nil)
	//failedは合計に入らない前提のクエリ
	withdrawals.On("SumNonFailedByMerchantID", mock.Anything, int64(1)).Return(int64(4500), nil)

	uc := usecase.NewLedgerUsecase(orders, withdrawals, merchants)

	balance, err := uc.ComputeBalance(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(7500), balance)
}

func TestLedgerUsecase_ComputeBalance_NoActivity(t *testing.T) {
	orders := new(OrderRepoMock)
	withdrawals := new(WithdrawalRepoMock)
	merchants := new(MerchantRepoMock)

	merchants.On("FindByID", mock.Anything, int64(1)).Return(model.Merchant{ID: 1}, nil)
	orders.On("SumTotalByMerchantID", mock.Anything, int64(1)).Return(int64(0), nil)
	withdrawals.On("SumNonFailedByMerchantID", mock.Anything, int64(1)).Return(int64(0), nil)

	uc := usecase.NewLedgerUsecase(orders, withdrawals, merchants)

	balance, err := uc.ComputeBalance(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestLedgerUsecase_ComputeBalance_UnknownMerchant(t *testing.T) {
	orders := new(OrderRepoMock)
	withdrawals := new(WithdrawalRepoMock)
	merchants := new(MerchantRepoMock)

	merchants.On("FindByID", mock.Anything, int64(9)).Return(model.Merchant{}, repo.ErrNotFound)

	uc := usecase.NewLedgerUsecase(orders, withdrawals, merchants)

	_, err := uc.ComputeBalance(context.Background(), 9)
	assertErrContains(t, err, "not found")

	orders.AssertNotCalled(t, "SumTotalByMerchantID", mock.Anything, mock.Anything)
}

func TestLedgerUsecase_HasPendingWithdrawal(t *testing.T) {
	withdrawals := new(WithdrawalRepoMock)
	withdrawals.On("HasPendingByMerchantID", mock.Anything, int64(1)).Return(true, nil)

	uc := usecase.NewLedgerUsecase(new(OrderRepoMock), withdrawals, new(MerchantRepoMock))

	has, err := uc.HasPendingWithdrawal(context.Background(), 1)
	assert.NoError(t, err)
	assert.True(t, has)
}

func TestLedgerUsecase_Reconcile_Consistent(t *testing.T) {
	orders := new(OrderRepoMock)
	withdrawals := new(WithdrawalRepoMock)
	merchants := new(MerchantRepoMock)

	merchants.On("FindByID", mock.Anything, int64(1)).Return(model.Merchant{ID: 1, Balance: 7500}, nil)
	orders.On("SumTotalByMerchantID", mock.Anything, int64(1)).Return(int64(12000), nil)
	withdrawals.On("SumNonFailedByMerchantID", mock.Anything, int64(1)).Return(int64(4500), nil)

	uc := usecase.NewLedgerUsecase(orders, withdrawals, merchants)

	out, err := uc.Reconcile(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(7500), out.StoredBalance)
	assert.Equal(t, int64(7500), out.ComputedBalance)
	assert.True(t, out.Consistent)
}

func TestLedgerUsecase_Reconcile_Inconsistent(t *testing.T) {
	orders := new(OrderRepoMock)
	withdrawals := new(WithdrawalRepoMock)
	merchants := new(MerchantRepoMock)

	merchants.On("FindByID", mock.Anything, int64(1)).Return(model.Merchant{ID: 1, Balance: 8000}, nil)
	orders.On("SumTotalByMerchantID", mock.Anything, int64(1)).Return(int64(12000), nil)
	withdrawals.On("SumNonFailedByMerchantID", mock.Anything, int64(1)).Return(int64(4500), nil)

	uc := usecase.NewLedgerUsecase(orders, withdrawals, merchants)

	out, err := uc.Reconcile(context.Background(), 1)
	assert.NoError(t, err)
	assert.False(t, out.Consistent)
}
