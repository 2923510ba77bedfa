package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnTheWay   OrderStatus = "on_the_way"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// 配達ステータスの前進順。cancelledは順序外（終端）。
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusOnTheWay:   2,
	OrderStatusDelivered:  3,
}

// 前進のみ許可。終端（delivered/cancelled）からは動かせない。
func (s OrderStatus) CanAdvanceTo(dst OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if dst == OrderStatusCancelled {
		return true
	}
	from, ok1 := orderStatusRank[s]
	to, ok2 := orderStatusRank[dst]
	if !ok1 || !ok2 {
		return false
	}
	return to > from
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

type SubscriptionFrequency string

const (
	FrequencyWeekly   SubscriptionFrequency = "weekly"
	FrequencyBiweekly SubscriptionFrequency = "biweekly"
	FrequencyMonthly  SubscriptionFrequency = "monthly"
)

// 注文。定期注文の場合はsubscription系フィールドを持つ。
// total_amountは作成時に確定し、その後は変更しない。
type Order struct {
	ID                  int64                 `gorm:"primaryKey;autoIncrement" json:"id"`
	MerchantID          int64                 `gorm:"not null;index" json:"merchant_id"`
	Status              OrderStatus           `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount         int64                 `gorm:"not null" json:"total_amount"`
	IsSubscription      bool                  `gorm:"not null;default:false;index" json:"is_subscription"`
	SubscriptionStatus  SubscriptionStatus    `gorm:"type:varchar(20)" json:"subscription_status,omitempty"`
	Frequency           SubscriptionFrequency `gorm:"type:varchar(20);column:subscription_frequency" json:"subscription_frequency,omitempty"`
	NextDeliveryDate    *time.Time            `json:"next_delivery_date,omitempty"`
	CustomerPhone       string                `gorm:"type:varchar(30);not null" json:"customer_phone"`
	DeliveryAddress     string                `gorm:"type:varchar(255);not null" json:"delivery_address"`
	DeliveryTime        string                `gorm:"type:varchar(100)" json:"delivery_time"`
	SpecialInstructions string                `gorm:"type:text" json:"special_instructions"`
	PaymentReference    string                `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	CreatedAt           time.Time             `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time             `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
