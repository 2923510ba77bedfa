package usecase_test

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newSubTx(orders *OrderRepoMock, items *OrderItemRepoMock) *TxManagerMock {
	tx := new(TxManagerMock)
	tx.Repos = &TxReposMock{
		orders:     orders,
		orderItems: items,
	}
	tx.On("WithinTx", mock.Anything).Return(nil)
	return tx
}

func activeSubscription(id int64, merchantID int64) model.Order {
	next := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	return model.Order{
		ID:                 id,
		MerchantID:         merchantID,
		Status:             model.OrderStatusPending,
		IsSubscription:     true,
		SubscriptionStatus: model.SubscriptionStatusActive,
		Frequency:          model.FrequencyWeekly,
		NextDeliveryDate:   &next,
	}
}

// =====================
// NextDeliveryDate tests
// =====================

func TestNextDeliveryDate_Weekly(t *testing.T) {
	from := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	got := usecase.NextDeliveryDate(model.FrequencyWeekly, from)
	assert.Equal(t, time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC), got)
}

func TestNextDeliveryDate_Biweekly(t *testing.T) {
	from := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	got := usecase.NextDeliveryDate(model.FrequencyBiweekly, from)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), got)
}

func TestNextDeliveryDate_Monthly_SameDay(t *testing.T) {
	from := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	got := usecase.NextDeliveryDate(model.FrequencyMonthly, from)
	assert.Equal(t, time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC), got)
}

// 1/31の翌月は2/29に丸める（2024はうるう年）。3/2へ流れてはいけない。
func TestNextDeliveryDate_Monthly_ClampsToMonthEnd(t *testing.T) {
	from := time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)
	got := usecase.NextDeliveryDate(model.FrequencyMonthly, from)
	assert.Equal(t, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), got)
}

func TestNextDeliveryDate_Monthly_ClampsToFebruaryNonLeap(t *testing.T) {
	from := time.Date(2023, 1, 30, 0, 0, 0, 0, time.UTC)
	got := usecase.NextDeliveryDate(model.FrequencyMonthly, from)
	assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), got)
}

// 未知の頻度はweekly扱い
func TestNextDeliveryDate_UnknownFrequencyFallsBackToWeekly(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	got := usecase.NextDeliveryDate(model.SubscriptionFrequency("daily"), from)
	assert.Equal(t, from.AddDate(0, 0, 7), got)
}

// 同じ入力なら同じ出力（純関数）
func TestNextDeliveryDate_Deterministic(t *testing.T) {
	from := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	a := usecase.NextDeliveryDate(model.FrequencyMonthly, from)
	b := usecase.NextDeliveryDate(model.FrequencyMonthly, from)
	assert.Equal(t, a, b)
}

// =====================
// SetFrequency tests
// =====================

func TestSubscriptionUsecase_SetFrequency_InvalidFrequency(t *testing.T) {
	tx := new(TxManagerMock)
	uc := usecase.NewSubscriptionUsecase(tx, &passValidator{}, &fixedClock{t: time.Now()})

	err := uc.SetFrequency(context.Background(), 1, 1, model.SubscriptionFrequency("daily"))
	assertErrContains(t, err, "invalid frequency")
}

func TestSubscriptionUsecase_SetFrequency_NotASubscription(t *testing.T) {
	orders := new(OrderRepoMock)
	tx := newSubTx(orders, new(OrderItemRepoMock))

	orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, MerchantID: 1, IsSubscription: false,
	}, nil)

	uc := usecase.NewSubscriptionUsecase(tx, &passValidator{}, &fixedClock{t: time.Now()})

	err := uc.SetFrequency(context.Background(), 1, 5, model.FrequencyMonthly)
	assertErrContains(t, err, "not a subscription")
}

// 次回配達日は「今」から再計算される
func TestSubscriptionUsecase_SetFrequency_ReschedulesFromNow(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	orders := new(OrderRepoMock)
	tx := newSubTx(orders, new(OrderItemRepoMock))

	orders.On("FindByID", mock.Anything, int64(5)).Return(activeSubscription(5, 1), nil)

	wantNext := now.AddDate(0, 0, 14)
	orders.On("UpdateSubscription", mock.Anything, int64(5), mock.MatchedBy(func(f repo.SubscriptionFields) bool {
		return f.IsSubscription &&
			f.Frequency == model.FrequencyBiweekly &&
			f.NextDeliveryDate != nil && f.NextDeliveryDate.Equal(wantNext)
	})).Return(nil)

	uc := usecase.NewSubscriptionUsecase(tx, &passValidator{}, &fixedClock{t: now})

	err := uc.SetFrequency(context.Background(), 1, 5, model.FrequencyBiweekly)
	assert.NoError(t, err)
	orders.AssertExpectations(t)
}

// =====================
// SetStatus tests
// =====================

func TestSubscriptionUsecase_SetStatus_Pause(t *testing.T) {
	orders := new(OrderRepoMock)
	tx := newSubTx(orders, new(OrderItemRepoMock))

	sub := activeSubscription(5, 1)
	orders.On("FindByID", mock.Anything, int64(5)).Return(sub, nil)
	orders.On("UpdateSubscription", mock.Anything, int64(5), mock.MatchedBy(func(f repo.SubscriptionFields) bool {
		return f.IsSubscription &&
			f.SubscriptionStatus == model.SubscriptionStatusPaused &&
			f.NextDeliveryDate != nil
	})).Return(nil)

	uc := usecase.NewSubscriptionUsecase(tx, &passValidator{}, &fixedClock{t: time.Now()})

	err := uc.SetStatus(context.Background(), 1, 5, model.SubscriptionStatusPaused)
	assert.NoError(t, err)
	orders.AssertExpectations(t)
}

func TestSubscriptionUsecase_SetStatus_SameStatus_NoOp(t *testing.T) {
	orders := new(OrderRepoMock)
	tx := newSubTx(orders, new(OrderItemRepoMock))

	orders.On("FindByID", mock.Anything, int64(5)).Return(activeSubscription(5, 1), nil)

	uc := usecase.NewSubscriptionUsecase(tx, &passValidator{}, &fixedClock{t: time.Now()})

	err := uc.SetStatus(context.Background(), 1, 5, model.SubscriptionStatusActive)
	assert.NoError(t, err)
	orders.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything, mock.Anything)
}

// 解約はis_subscriptionを落として次回配達日を消す
func TestSubscriptionUsecase_SetStatus_CancelIsTerminal(t *testing.T) {
	orders := new(OrderRepoMock)
	tx := newSubTx(orders, new(OrderItemRepoMock))

	orders.On("FindByID", mock.Anything, int64(5)).Return(activeSubscription(5, 1), nil)
	orders.On("UpdateSubscription", mock.Anything, int64(5), mock.MatchedBy(func(f repo.SubscriptionFields) bool {
		return !f.IsSubscription &&
			f.SubscriptionStatus == model.SubscriptionStatusCancelled &&
			f.NextDeliveryDate == nil
	})).Return(nil)

	uc := usecase.NewSubscriptionUsecase(tx, &passValidator{}, &fixedClock{t: time.Now()})

	err := uc.SetStatus(context.Background(), 1, 5, model.SubscriptionStatusCancelled)
	assert.NoError(t, err)
	orders.AssertExpectations(t)
}

// 解約済みへの再開要求は拒否
func TestSubscriptionUsecase_SetStatus_CancelledCannotReactivate(t *testing.T) {
	orders := new(OrderRepoMock)
	tx := newSubTx(orders, new(OrderItemRepoMock))

	//解約済みはis_subscription=falseに落ちている
	orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, MerchantID: 1,
		IsSubscription:     false,
		SubscriptionStatus: model.SubscriptionStatusCancelled,
	}, nil)

	uc := usecase.NewSubscriptionUsecase(tx, &passValidator{}, &fixedClock{t: time.Now()})

	err := uc.SetStatus(context.Background(), 1, 5, model.SubscriptionStatusActive)
	assertErrContains(t, err, "not a subscription")
	orders.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// UpdateItems tests
// =====================

// 明細は差し替わるがtotal_amountは触らない
func TestSubscriptionUsecase_UpdateItems_ReplacesWithoutTotalRecompute(t *testing.T) {
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	tx := newSubTx(orders, items)

	orders.On("FindByID", mock.Anything, int64(5)).Return(activeSubscription(5, 1), nil)
	items.On("ReplaceForOrder", mock.Anything, int64(5), mock.MatchedBy(func(newItems []model.OrderItem) bool {
		return len(newItems) == 2 && newItems[0].Name == "Milk" && newItems[1].UnitPrice == 300
	})).Return(nil)

	uc := usecase.NewSubscriptionUsecase(tx, &passValidator{}, &fixedClock{t: time.Now()})

	err := uc.UpdateItems(context.Background(), 1, 5, []usecase.CheckoutItemInput{
		{Name: "Milk", Price: 200, Quantity: 2, Unit: "l"},
		{Name: "Eggs", Price: 300, Quantity: 1, Unit: "pack"},
	})
	assert.NoError(t, err)

	items.AssertExpectations(t)
	//合計の再計算はしない
	orders.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscriptionUsecase_UpdateItems_OtherMerchantLooksLikeNotFound(t *testing.T) {
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	tx := newSubTx(orders, items)

	orders.On("FindByID", mock.Anything, int64(5)).Return(activeSubscription(5, 2), nil)

	uc := usecase.NewSubscriptionUsecase(tx, &passValidator{}, &fixedClock{t: time.Now()})

	err := uc.UpdateItems(context.Background(), 1, 5, []usecase.CheckoutItemInput{
		{Name: "Milk", Price: 200, Quantity: 2},
	})
	assertErrContains(t, err, "not found")
	items.AssertNotCalled(t, "ReplaceForOrder", mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// AdvanceDueSchedules tests
// =====================

func TestSubscriptionUsecase_AdvanceDueSchedules(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	orders := new(OrderRepoMock)
	tx := newSubTx(orders, new(OrderItemRepoMock))

	due := []model.Order{
		activeSubscription(1, 1),
		activeSubscription(2, 2),
	}
	due[1].Frequency = model.FrequencyMonthly

	orders.On("ListDueSubscriptions", mock.Anything, now).Return(due, nil)

	wantWeekly := now.AddDate(0, 0, 7)
	wantMonthly := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	orders.On("UpdateSubscription", mock.Anything, int64(1), mock.MatchedBy(func(f repo.SubscriptionFields) bool {
		return f.NextDeliveryDate != nil && f.NextDeliveryDate.Equal(wantWeekly)
	})).Return(nil)
	orders.On("UpdateSubscription", mock.Anything, int64(2), mock.MatchedBy(func(f repo.SubscriptionFields) bool {
		return f.NextDeliveryDate != nil && f.NextDeliveryDate.Equal(wantMonthly)
	})).Return(nil)

	uc := usecase.NewSubscriptionUsecase(tx, &passValidator{}, &fixedClock{t: now})

	advanced, err := uc.AdvanceDueSchedules(context.Background(), now)
	assert.NoError(t, err)
	assert.Equal(t, 2, advanced)
	orders.AssertExpectations(t)
}
