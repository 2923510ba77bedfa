package validator

import (
	"errors"
	"regexp"
	"strings"

	"marketplace/internal/usecase"
)

var (
	// 入力が不正
	ErrItemsRequired   = errors.New("items required")
	ErrItemNameMissing = errors.New("item name required")
	ErrItemPrice       = errors.New("item price must be >= 0")
	ErrItemQuantity    = errors.New("item quantity must be >= 1")
	ErrPhoneRequired   = errors.New("customer phone required")
	ErrPhoneFormat     = errors.New("invalid phone number")
	ErrAddressRequired = errors.New("delivery address required")
)

// 数字・+・-・スペースのみ、7〜20文字
var phonePattern = regexp.MustCompile(`^[0-9+\-\s]{7,20}$`)

type checkoutValidator struct{}

// Usecaseは interface を依存注入
func NewCheckoutValidator() usecase.CheckoutValidator {
	return &checkoutValidator{}
}

// チェックアウト入力を検証。永続化前に呼ぶ。
func (v *checkoutValidator) ValidateCheckout(in usecase.CheckoutInput) error {
	if err := v.ValidateItems(in.Items); err != nil {
		return err
	}

	phone := strings.TrimSpace(in.CustomerPhone)
	if phone == "" {
		return ErrPhoneRequired
	}
	if !phonePattern.MatchString(phone) {
		return ErrPhoneFormat
	}

	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return ErrAddressRequired
	}

	return nil
}

// 明細の検証。チェックアウトと定期注文の明細差し替えの両方から使う。
func (v *checkoutValidator) ValidateItems(items []usecase.CheckoutItemInput) error {
	if len(items) == 0 {
		return ErrItemsRequired
	}
	for _, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return ErrItemNameMissing
		}
		if it.Price < 0 {
			return ErrItemPrice
		}
		if it.Quantity < 1 {
			return ErrItemQuantity
		}
	}
	return nil
}
