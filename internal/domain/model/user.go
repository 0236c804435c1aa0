package model

import (
	"errors"
	"strings"
	"time"
)

// ロールは user / admin の2つだけ（自由文字列にしない）
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var ErrInvalidRole = errors.New("invalid role")

// 文字列からRoleへ。未知の値はエラー
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// UIテーマ
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

var ErrInvalidTheme = errors.New("invalid theme")

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", ErrInvalidTheme
	}
}

type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Nickname     string    `gorm:"type:varchar(50);not null" json:"nickname"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Theme        Theme     `gorm:"type:varchar(20);not null;default:'light'" json:"preference_theme"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// アクセストークンに載せる本人情報
type Identity struct {
	UserID   int64  `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Nickname string `json:"nickname"`
}

func (u *User) Identity() Identity {
	return Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		Nickname: u.Nickname,
	}
}
