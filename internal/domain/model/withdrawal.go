package model

import "time"

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusFailed   WithdrawalStatus = "failed"
)

// 出金申請。作成後に削除しない（failedでも履歴として残す）。
type Withdrawal struct {
	ID         int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	MerchantID int64            `gorm:"not null;index" json:"merchant_id"`
	Amount     int64            `gorm:"not null" json:"amount"`
	Status     WithdrawalStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	//外部送金用の参照番号（UUID）
	Reference string `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	//自動出金で作られたかどうか
	Auto      bool      `gorm:"not null;default:false" json:"auto"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
