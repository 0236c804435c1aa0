package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) Create(ctx context.Context, review *model.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if isUniqueViolation(err) {
			return repo.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *ReviewGormRepository) FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (*model.Review, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&rv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *ReviewGormRepository) FindViewByID(ctx context.Context, reviewID int64) (model.ReviewView, error) {
	var views []model.ReviewView
	if err := r.viewQuery(ctx).
		Where("reviews.id = ?", reviewID).
		Limit(1).
		Scan(&views).Error; err != nil {
		return model.ReviewView{}, err
	}
	if len(views) == 0 {
		return model.ReviewView{}, repo.ErrNotFound
	}
	return views[0], nil
}

func (r *ReviewGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.ReviewView, error) {
	views := []model.ReviewView{}
	err := r.viewQuery(ctx).
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at desc, reviews.id desc").
		Scan(&views).Error
	if err != nil {
		return []model.ReviewView{}, err
	}
	return views, nil
}

func (r *ReviewGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.ReviewView, error) {
	views := []model.ReviewView{}
	err := r.viewQuery(ctx).
		Where("reviews.user_id = ?", userID).
		Order("reviews.created_at desc, reviews.id desc").
		Scan(&views).Error
	if err != nil {
		return []model.ReviewView{}, err
	}
	return views, nil
}

// reviews + users.nickname
func (r *ReviewGormRepository) viewQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("reviews.id, reviews.user_id, reviews.product_id, reviews.rating, reviews.comment, reviews.created_at, users.nickname AS nickname").
		Joins("JOIN users ON users.id = reviews.user_id")
}
