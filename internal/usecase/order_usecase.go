package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// サービス料の設定。itemsTotalがThreshold以上のときだけAmountを加算する。
type ServiceChargeConfig struct {
	Amount    int64
	Threshold int64
}

// チェックアウト入力の検証を行う約束。永続化前に呼ぶ。
type CheckoutValidator interface {
	ValidateCheckout(in CheckoutInput) error
	ValidateItems(items []CheckoutItemInput) error
}

type OrderUsecase struct {
	tx        repo.TransactionManager
	validator CheckoutValidator
	charge    ServiceChargeConfig
	clock     Clock
}

func NewOrderUsecase(tx repo.TransactionManager, validator CheckoutValidator, charge ServiceChargeConfig, clock Clock) *OrderUsecase {
	return &OrderUsecase{tx: tx, validator: validator, charge: charge, clock: clock}
}

type CheckoutItemInput struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	Unit     string `json:"unit"`
	Image    string `json:"image"`
}

type CheckoutInput struct {
	MerchantID          int64                       `json:"merchant_id"`
	Items               []CheckoutItemInput         `json:"items"`
	CustomerPhone       string                      `json:"customer_phone"`
	DeliveryAddress     string                      `json:"delivery_address"`
	DeliveryTime        string                      `json:"delivery_time"`
	SpecialInstructions string                      `json:"special_instructions"`
	PaymentReference    string                      `json:"payment_reference"`
	IsSubscription      bool                        `json:"is_subscription"`
	Frequency           model.SubscriptionFrequency `json:"subscription_frequency"`
}

type OrderItemOutput struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	Unit     string `json:"unit"`
	Image    string `json:"image,omitempty"`
}

type OrderOutput struct {
	ID                  int64                       `json:"id"`
	MerchantID          int64                       `json:"merchant_id"`
	Status              string                      `json:"status"`
	TotalAmount         int64                       `json:"total_amount"`
	IsSubscription      bool                        `json:"is_subscription"`
	SubscriptionStatus  model.SubscriptionStatus    `json:"subscription_status,omitempty"`
	Frequency           model.SubscriptionFrequency `json:"subscription_frequency,omitempty"`
	NextDeliveryDate    *time.Time                  `json:"next_delivery_date,omitempty"`
	CustomerPhone       string                      `json:"customer_phone"`
	DeliveryAddress     string                      `json:"delivery_address"`
	DeliveryTime        string                      `json:"delivery_time,omitempty"`
	SpecialInstructions string                      `json:"special_instructions,omitempty"`
	CreatedAt           time.Time                   `json:"created_at"`
	Items               []OrderItemOutput           `json:"items"`
}

// 明細合計＋条件付きサービス料
func (u *OrderUsecase) computeTotal(items []CheckoutItemInput) int64 {
	var total int64
	for _, it := range items {
		total += it.Price * it.Quantity
	}
	if u.charge.Threshold > 0 && total >= u.charge.Threshold {
		total += u.charge.Amount
	}
	return total
}

// 決済成功コールバックからのみ呼ばれる前提。payment_referenceが冪等キー。
func (u *OrderUsecase) Checkout(ctx context.Context, in CheckoutInput) (OrderOutput, error) {
	if in.MerchantID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid merchant_id")
	}

	ref := strings.TrimSpace(in.PaymentReference)
	if ref == "" || len(ref) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_reference")
	}

	//永続化前に入力検証
	if err := u.validator.ValidateCheckout(in); err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	total := u.computeTotal(in.Items)

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//同じ参照なら同じ注文を返す
		existing, found, err := r.Orders().FindByPaymentReference(ctx, ref)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		//店舗の存在確認
		if _, err := r.Merchants().FindByID(ctx, in.MerchantID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		now := u.clock.Now()
		order := model.Order{
			MerchantID:          in.MerchantID,
			Status:              model.OrderStatusPending,
			TotalAmount:         total,
			CustomerPhone:       strings.TrimSpace(in.CustomerPhone),
			DeliveryAddress:     strings.TrimSpace(in.DeliveryAddress),
			DeliveryTime:        strings.TrimSpace(in.DeliveryTime),
			SpecialInstructions: strings.TrimSpace(in.SpecialInstructions),
			PaymentReference:    ref,
			CreatedAt:           now,
			UpdatedAt:           now,
		}

		if in.IsSubscription {
			next := NextDeliveryDate(in.Frequency, now)
			order.IsSubscription = true
			order.SubscriptionStatus = model.SubscriptionStatusActive
			order.Frequency = normalizeFrequency(in.Frequency)
			order.NextDeliveryDate = &next
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			//競合（同時に同じ参照が入った等）はもう一回検索して同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByPaymentReference(ctx, ref)
			if err2 == nil && found2 {
				items2, err3 := r.OrderItems().ListByOrderID(ctx, ex2.ID)
				if err3 != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				out = toOrderOutput(ex2, items2)
				return nil
			}
			return NewHTTPError(http.StatusBadRequest, "payment reference conflict")
		}
		order.ID = orderID

		orderItems := make([]model.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			orderItems = append(orderItems, model.OrderItem{
				OrderID:   orderID,
				Name:      strings.TrimSpace(it.Name),
				UnitPrice: it.Price,
				Quantity:  it.Quantity,
				Unit:      it.Unit,
				ImageURL:  it.Image,
				CreatedAt: now,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//注文金額を店舗残高へ計上
		if err := r.Merchants().AddBalance(ctx, in.MerchantID, total); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(order, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ステータス更新（前進のみ、cancelledは非終端からのみ）
func (u *OrderUsecase) UpdateStatus(ctx context.Context, actorUserID int64, merchantID int64, orderID int64, status string) error {
	if actorUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if merchantID <= 0 || orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(status))
	switch newStatus {
	case model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusOnTheWay,
		model.OrderStatusDelivered, model.OrderStatusCancelled:
		// OK
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//他店舗の注文は「存在しない扱い」にする
		if o.MerchantID != merchantID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		//すでに同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}
		if o.Status == model.OrderStatusCancelled {
			return NewHTTPError(http.StatusBadRequest, "cannot change cancelled order")
		}
		if o.Status == model.OrderStatusDelivered {
			return NewHTTPError(http.StatusBadRequest, "cannot change delivered order")
		}
		//後退は不可
		if !o.Status.CanAdvanceTo(newStatus) {
			return NewHTTPError(http.StatusBadRequest, "cannot move status backward")
		}

		beforeStatus := string(o.Status)
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		beforeJSON := `{"status":"` + beforeStatus + `"}`
		afterJSON := `{"status":"` + string(newStatus) + `"}`
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})
}

// 中間ステータスを飛ばして配達完了にする近道。deliveredは常に前進先なのでOK。
func (u *OrderUsecase) MarkDelivered(ctx context.Context, actorUserID int64, merchantID int64, orderID int64) error {
	return u.UpdateStatus(ctx, actorUserID, merchantID, orderID, string(model.OrderStatusDelivered))
}

func (u *OrderUsecase) ListMerchantOrders(ctx context.Context, merchantID int64, f repo.OrderListFilter) ([]OrderOutput, error) {
	if merchantID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByMerchantID(ctx, merchantID, f)
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

func (u *OrderUsecase) GetMerchantOrder(ctx context.Context, merchantID int64, orderID int64) (OrderOutput, error) {
	if merchantID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.MerchantID != merchantID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			Name:     it.Name,
			Price:    it.UnitPrice,
			Quantity: it.Quantity,
			Unit:     it.Unit,
			Image:    it.ImageURL,
		})
	}

	return OrderOutput{
		ID:                  o.ID,
		MerchantID:          o.MerchantID,
		Status:              string(o.Status),
		TotalAmount:         o.TotalAmount,
		IsSubscription:      o.IsSubscription,
		SubscriptionStatus:  o.SubscriptionStatus,
		Frequency:           o.Frequency,
		NextDeliveryDate:    o.NextDeliveryDate,
		CustomerPhone:       o.CustomerPhone,
		DeliveryAddress:     o.DeliveryAddress,
		DeliveryTime:        o.DeliveryTime,
		SpecialInstructions: o.SpecialInstructions,
		CreatedAt:           o.CreatedAt,
		Items:               outItems,
	}
}
