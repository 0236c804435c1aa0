package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

// ログイン中ユーザー自身のプロフィール操作
type ProfileUsecase struct {
	users repository.UserRepository
}

func NewProfileUsecase(users repository.UserRepository) *ProfileUsecase {
	return &ProfileUsecase{users: users}
}

func (u *ProfileUsecase) Me(ctx context.Context, userID int64) (*model.User, error) {
	if userID <= 0 {
		return nil, Unauthenticated("unauthorized")
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("user not found")
		}
		return nil, Integrity(err)
	}
	return user, nil
}

// 3文字以上（前後の空白は除く）
func (u *ProfileUsecase) ChangeNickname(ctx context.Context, userID int64, nickname string) (string, error) {
	n, err := validateNickname(nickname)
	if err != nil {
		return "", err
	}
	if err := u.users.UpdateNickname(ctx, userID, n); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", NotFound("user not found")
		}
		return "", Integrity(err)
	}
	return n, nil
}

func (u *ProfileUsecase) ChangeTheme(ctx context.Context, userID int64, theme string) (model.Theme, error) {
	t, err := model.ParseTheme(theme)
	if err != nil {
		return "", Validation("theme must be light or dark")
	}
	if err := u.users.UpdateTheme(ctx, userID, t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", NotFound("user not found")
		}
		return "", Integrity(err)
	}
	return t, nil
}
