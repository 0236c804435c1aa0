package repository

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	domainrepo "storefront/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// ユーザーを新規作成（emailが重複したらErrDuplicate）
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return domainrepo.ErrDuplicate
		}
		return err
	}
	return nil
}

// emailでユーザーを1件取得（大文字小文字は区別しない）
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrNotFound
		}
		return nil, err
	}

	return &u, nil
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrNotFound
		}
		return nil, err
	}

	return &u, nil
}

func (r *userGormRepository) UpdateNickname(ctx context.Context, id int64, nickname string) error {
	return r.updateColumn(ctx, id, "nickname", nickname)
}

func (r *userGormRepository) UpdateTheme(ctx context.Context, id int64, theme model.Theme) error {
	return r.updateColumn(ctx, id, "theme", theme)
}

func (r *userGormRepository) UpdateRole(ctx context.Context, id int64, role model.Role) error {
	return r.updateColumn(ctx, id, "role", role)
}

// 1カラム更新。対象がなければErrNotFound
func (r *userGormRepository) updateColumn(ctx context.Context, id int64, column string, value any) error {
	var exists int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return domainrepo.ErrNotFound
	}

	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update(column, value).Error
}
