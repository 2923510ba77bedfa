package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 未知の頻度はweekly扱い
func normalizeFrequency(f model.SubscriptionFrequency) model.SubscriptionFrequency {
	switch f {
	case model.FrequencyWeekly, model.FrequencyBiweekly, model.FrequencyMonthly:
		return f
	}
	return model.FrequencyWeekly
}

// 次回配達日を計算する純関数。monthlyは翌月の同日、
// 同日が存在しない月は月末に丸める（1/31 → 2/29）。
func NextDeliveryDate(f model.SubscriptionFrequency, from time.Time) time.Time {
	switch normalizeFrequency(f) {
	case model.FrequencyBiweekly:
		return from.AddDate(0, 0, 14)
	case model.FrequencyMonthly:
		return addCalendarMonth(from)
	}
	return from.AddDate(0, 0, 7)
}

func addCalendarMonth(from time.Time) time.Time {
	y, m, d := from.Date()
	//翌月1日から月末日数を求める
	firstOfNext := time.Date(y, m+1, 1, 0, 0, 0, 0, from.Location())
	lastDay := firstOfNext.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), d,
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

type SubscriptionUsecase struct {
	tx        repo.TransactionManager
	validator CheckoutValidator
	clock     Clock
}

func NewSubscriptionUsecase(tx repo.TransactionManager, validator CheckoutValidator, clock Clock) *SubscriptionUsecase {
	return &SubscriptionUsecase{tx: tx, validator: validator, clock: clock}
}

// 対象の定期注文を取り出して所有・状態チェックする共通処理
func (u *SubscriptionUsecase) findSubscription(ctx context.Context, r repo.TxRepos, merchantID int64, orderID int64) (model.Order, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.MerchantID != merchantID {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	//cancelled済みはis_subscription=falseに落ちているのでここで弾ける
	if !o.IsSubscription {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "not a subscription")
	}
	if o.SubscriptionStatus == model.SubscriptionStatusCancelled {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "subscription cancelled")
	}
	return o, nil
}

// 頻度変更。次回配達日は「今」から再計算する（既存の周期は引き継がない）。
func (u *SubscriptionUsecase) SetFrequency(ctx context.Context, merchantID int64, orderID int64, f model.SubscriptionFrequency) error {
	if merchantID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	switch f {
	case model.FrequencyWeekly, model.FrequencyBiweekly, model.FrequencyMonthly:
		// OK
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid frequency")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findSubscription(ctx, r, merchantID, orderID)
		if err != nil {
			return err
		}

		next := NextDeliveryDate(f, u.clock.Now())
		if err := r.Orders().UpdateSubscription(ctx, o.ID, repo.SubscriptionFields{
			IsSubscription:     true,
			SubscriptionStatus: o.SubscriptionStatus,
			Frequency:          f,
			NextDeliveryDate:   &next,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

// active⇄pausedは自由。cancelledは終端でis_subscriptionも落とす。
func (u *SubscriptionUsecase) SetStatus(ctx context.Context, merchantID int64, orderID int64, status model.SubscriptionStatus) error {
	if merchantID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	switch status {
	case model.SubscriptionStatusActive, model.SubscriptionStatusPaused, model.SubscriptionStatusCancelled:
		// OK
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findSubscription(ctx, r, merchantID, orderID)
		if err != nil {
			return err
		}

		if o.SubscriptionStatus == status {
			return nil
		}

		fields := repo.SubscriptionFields{
			IsSubscription:     true,
			SubscriptionStatus: status,
			Frequency:          o.Frequency,
			NextDeliveryDate:   o.NextDeliveryDate,
		}
		if status == model.SubscriptionStatusCancelled {
			//解約は復活不可。新しい注文を作り直してもらう。
			fields.IsSubscription = false
			fields.NextDeliveryDate = nil
		}

		if err := r.Orders().UpdateSubscription(ctx, o.ID, fields); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

// 明細差し替え。total_amountは再計算しない（変更は次回注文から反映）。
func (u *SubscriptionUsecase) UpdateItems(ctx context.Context, merchantID int64, orderID int64, items []CheckoutItemInput) error {
	if merchantID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := u.validator.ValidateItems(items); err != nil {
		return NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findSubscription(ctx, r, merchantID, orderID)
		if err != nil {
			return err
		}

		now := u.clock.Now()
		newItems := make([]model.OrderItem, 0, len(items))
		for _, it := range items {
			newItems = append(newItems, model.OrderItem{
				OrderID:   o.ID,
				Name:      it.Name,
				UnitPrice: it.Price,
				Quantity:  it.Quantity,
				Unit:      it.Unit,
				ImageURL:  it.Image,
				CreatedAt: now,
			})
		}

		if err := r.OrderItems().ReplaceForOrder(ctx, o.ID, newItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

func (u *SubscriptionUsecase) ListMerchantSubscriptions(ctx context.Context, merchantID int64) ([]OrderOutput, error) {
	if merchantID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListSubscriptionsByMerchantID(ctx, merchantID, false)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 期限を過ぎたactiveな定期注文の次回配達日を前に進める。workerから呼ばれる。
func (u *SubscriptionUsecase) AdvanceDueSchedules(ctx context.Context, now time.Time) (int, error) {
	advanced := 0

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		due, err := r.Orders().ListDueSubscriptions(ctx, now)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, o := range due {
			next := NextDeliveryDate(o.Frequency, now)
			if err := r.Orders().UpdateSubscription(ctx, o.ID, repo.SubscriptionFields{
				IsSubscription:     true,
				SubscriptionStatus: o.SubscriptionStatus,
				Frequency:          o.Frequency,
				NextDeliveryDate:   &next,
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			advanced++
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return advanced, nil
}
