package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

func (r *CartItemGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

// 行ロック付きで取得（sqliteではロック句は無視される）
func (r *CartItemGormRepository) ListByUserIDForUpdate(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

// 他人の明細は「存在しない」扱い
func (r *CartItemGormRepository) FindByID(ctx context.Context, userID int64, itemID int64) (model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// 同一商品は数量加算。スナップショットは最初に追加した時点のまま。
// 同時に初回追加が走って一意制約に当たったらErrDuplicate（呼び出し側で再試行）。
func (r *CartItemGormRepository) AddOrIncrement(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	var out model.CartItem

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.CartItem
		findErr := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
			First(&existing).Error

		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			// 無ければ作る
			if err := tx.Create(&item).Error; err != nil {
				if isUniqueViolation(err) {
					return repo.ErrDuplicate
				}
				return err
			}
			out = item
			return nil
		}
		if findErr != nil {
			return findErr
		}

		if err := tx.Model(&model.CartItem{}).
			Where("id = ?", existing.ID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", existing.ID).First(&out).Error
	})
	if err != nil {
		return model.CartItem{}, err
	}
	return out, nil
}

func (r *CartItemGormRepository) UpdateQuantity(ctx context.Context, userID int64, itemID int64, quantity int64) (model.CartItem, error) {
	item, err := r.FindByID(ctx, userID, itemID)
	if err != nil {
		return model.CartItem{}, err
	}

	if err := r.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Update("quantity", quantity).Error; err != nil {
		return model.CartItem{}, err
	}

	item.Quantity = quantity
	return item, nil
}

func (r *CartItemGormRepository) Delete(ctx context.Context, userID int64, itemID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&model.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// チェックアウトで読んだ行だけを消す（件数で同時更新を検知する）
func (r *CartItemGormRepository) DeleteByIDs(ctx context.Context, userID int64, itemIDs []int64) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, itemIDs).
		Delete(&model.CartItem{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *CartItemGormRepository) DeleteAllByUserID(ctx context.Context, userID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
