package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type ReviewRepository interface {
	//(user, product)が重複したらErrDuplicate
	Create(ctx context.Context, review *model.Review) error
	FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (*model.Review, error)
	FindViewByID(ctx context.Context, reviewID int64) (model.ReviewView, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.ReviewView, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.ReviewView, error)
}
