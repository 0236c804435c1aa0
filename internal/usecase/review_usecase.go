package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

const maxCommentLen = 2000

type ReviewUsecase struct {
	reviews repository.ReviewRepository
}

func NewReviewUsecase(reviews repository.ReviewRepository) *ReviewUsecase {
	return &ReviewUsecase{reviews: reviews}
}

type CreateReviewInput struct {
	ProductID int64
	Rating    int
	Comment   string
}

// 1ユーザー1商品1件まで
func (u *ReviewUsecase) Create(ctx context.Context, userID int64, in CreateReviewInput) (model.ReviewView, error) {
	if in.ProductID <= 0 {
		return model.ReviewView{}, Validation("invalid product_id")
	}
	if in.Rating < model.MinRating || in.Rating > model.MaxRating {
		return model.ReviewView{}, Validation("rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return model.ReviewView{}, Validation("comment is required")
	}
	if utf8.RuneCountInString(comment) > maxCommentLen {
		return model.ReviewView{}, Validation("comment is too long")
	}

	if _, err := u.reviews.FindByUserAndProduct(ctx, userID, in.ProductID); err == nil {
		return model.ReviewView{}, Conflict("you have already reviewed this product")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.ReviewView{}, Integrity(err)
	}

	review := &model.Review{
		UserID:    userID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   comment,
	}
	if err := u.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.ReviewView{}, Conflict("you have already reviewed this product")
		}
		return model.ReviewView{}, Integrity(err)
	}

	view, err := u.reviews.FindViewByID(ctx, review.ID)
	if err != nil {
		return model.ReviewView{}, Integrity(err)
	}
	return view, nil
}

func (u *ReviewUsecase) ListByProduct(ctx context.Context, productID int64) ([]model.ReviewView, error) {
	if productID <= 0 {
		return nil, Validation("invalid product_id")
	}
	out, err := u.reviews.ListByProductID(ctx, productID)
	if err != nil {
		return nil, Integrity(err)
	}
	return out, nil
}

func (u *ReviewUsecase) ListMine(ctx context.Context, userID int64) ([]model.ReviewView, error) {
	out, err := u.reviews.ListByUserID(ctx, userID)
	if err != nil {
		return nil, Integrity(err)
	}
	return out, nil
}
