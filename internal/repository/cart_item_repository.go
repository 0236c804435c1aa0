package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	//チェックアウト用（postgres/mysqlでは行ロック）
	ListByUserIDForUpdate(ctx context.Context, userID int64) ([]model.CartItem, error)
	FindByID(ctx context.Context, userID int64, itemID int64) (model.CartItem, error)
	//同じ商品があれば数量を加算、なければ作成
	AddOrIncrement(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, userID int64, itemID int64, quantity int64) (model.CartItem, error)
	Delete(ctx context.Context, userID int64, itemID int64) error
	DeleteByIDs(ctx context.Context, userID int64, itemIDs []int64) (int64, error)
	DeleteAllByUserID(ctx context.Context, userID int64) (int64, error)
}
