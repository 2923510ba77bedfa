package model

import "time"

type AutoWithdrawalInterval string

const (
	AutoWithdrawalOff   AutoWithdrawalInterval = "off"
	AutoWithdrawal1Hr   AutoWithdrawalInterval = "1hr"
	AutoWithdrawal2Hrs  AutoWithdrawalInterval = "2hrs"
	AutoWithdrawal1Week AutoWithdrawalInterval = "1week"
)

func (i AutoWithdrawalInterval) Valid() bool {
	switch i {
	case AutoWithdrawalOff, AutoWithdrawal1Hr, AutoWithdrawal2Hrs, AutoWithdrawal1Week:
		return true
	}
	return false
}

// offのときは0
func (i AutoWithdrawalInterval) Duration() time.Duration {
	switch i {
	case AutoWithdrawal1Hr:
		return time.Hour
	case AutoWithdrawal2Hrs:
		return 2 * time.Hour
	case AutoWithdrawal1Week:
		return 7 * 24 * time.Hour
	}
	return 0
}

// 店舗アカウント。balanceは注文と出金に合わせてトランザクション内で更新する
// 正本の残高。全件再計算（Ledger）は突合チェック用。
type Merchant struct {
	ID                     int64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                 int64                  `gorm:"not null;uniqueIndex" json:"user_id"`
	Name                   string                 `gorm:"type:varchar(255);not null" json:"name"`
	Balance                int64                  `gorm:"not null;default:0" json:"balance"`
	AutoWithdrawalInterval AutoWithdrawalInterval `gorm:"type:varchar(10);not null;default:'off'" json:"auto_withdrawal_interval"`
	LastAutoWithdrawalAt   *time.Time             `json:"last_auto_withdrawal_at,omitempty"`
	CreatedAt              time.Time              `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time              `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
