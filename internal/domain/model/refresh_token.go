package model

import "time"

// リフレッシュトークンの状態
type TokenState string

const (
	TokenIssued  TokenState = "ISSUED"
	TokenRotated TokenState = "ROTATED"
	TokenExpired TokenState = "EXPIRED"
	TokenRevoked TokenState = "REVOKED"
)

// 平文はcookieだけに置き、DBにはsha256(hex)を保存する。
// ReplacedByTokenHashは同じローテーションで発行した後継トークンを指す。
type RefreshToken struct {
	ID                  int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID              int64      `json:"user_id" gorm:"not null;index"`
	TokenHash           string     `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	ReplacedByTokenHash *string    `json:"-" gorm:"type:varchar(64);index"`
	UserAgent           string     `json:"user_agent" gorm:"type:varchar(255)"`
	ExpiresAt           time.Time  `json:"expires_at" gorm:"not null;index"`
	RevokedAt           *time.Time `json:"revoked_at" gorm:"index"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (t *RefreshToken) State(now time.Time) TokenState {
	if t.RevokedAt != nil {
		if t.ReplacedByTokenHash != nil {
			return TokenRotated
		}
		return TokenRevoked
	}
	if !now.Before(t.ExpiresAt) {
		return TokenExpired
	}
	return TokenIssued
}

// revoked_atがnull かつ now < expires_at
func (t *RefreshToken) IsLive(now time.Time) bool {
	return t.State(now) == TokenIssued
}
