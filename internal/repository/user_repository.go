package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// ユーザーの保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（email重複はErrDuplicate）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateNickname(ctx context.Context, userID int64, nickname string) error
	UpdateTheme(ctx context.Context, userID int64, theme model.Theme) error
	UpdateRole(ctx context.Context, userID int64, role model.Role) error
}
