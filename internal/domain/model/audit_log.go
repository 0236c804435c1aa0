package model

import "time"

// 管理者操作の種類
type AuditAction string

const (
	//ユーザーのロールを変更した操作。
	AuditActionUpdateUserRole AuditAction = "UPDATE_USER_ROLE"
	//ユーザーの全セッションを失効させた操作。
	AuditActionRevokeSessions AuditAction = "REVOKE_USER_SESSIONS"
	//今月の商品を設定した操作。
	AuditActionSetProductOfMonth AuditAction = "SET_PRODUCT_OF_MONTH"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceUser    AuditResourceType = "user"
	AuditResourceSetting AuditResourceType = "setting"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//対象のID（settingはキーをResourceKeyに入れる）。
	ResourceID  int64  `gorm:"not null;index" json:"resource_id"`
	ResourceKey string `gorm:"type:varchar(100)" json:"resource_key,omitempty"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// AutoMigrate対象
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Review{},
		&Setting{},
		&AuditLog{},
	}
}
