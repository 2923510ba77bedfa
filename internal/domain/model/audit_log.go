package model

import "time"

// 注文ステータス更新、出金ステータス更新など。
type AuditAction string

const (
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//出金ステータスを更新した操作。
	AuditActionUpdateWithdrawalStatus AuditAction = "UPDATE_WITHDRAWAL_STATUS"
	//自動出金が実行された操作。
	AuditActionAutoWithdrawal AuditAction = "AUTO_WITHDRAWAL"
)

// 何に対する操作か
type AuditResourceType string

const (
	//注文に対する操作。
	AuditResourceOrder AuditResourceType = "order"

	//出金に対する操作。
	AuditResourceWithdrawal AuditResourceType = "withdrawal"

	//店舗アカウントに対する操作。
	AuditResourceMerchant AuditResourceType = "merchant"
)

// 監査ログ（管理者操作・自動処理のログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID。自動処理は0。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	//操作の種類。
	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//対象の種類（order / withdrawal / merchant）。
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//対象のID。
	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`

	//JSON文字列で保存する。
	AfterJSON string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
