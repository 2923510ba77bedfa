package model

import "time"

// 注文の明細。注文時点の商品名・単価を必ず保存。
type OrderItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64     `gorm:"not null;index" json:"order_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice int64     `gorm:"not null;column:unit_price" json:"price"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	Unit      string    `gorm:"type:varchar(50)" json:"unit"`
	ImageURL  string    `gorm:"type:varchar(500)" json:"image,omitempty"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
