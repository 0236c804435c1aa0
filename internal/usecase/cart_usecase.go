package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	maxCartQuantity = 999
	maxTitleLen     = 255
)

type CartUsecase struct {
	items repository.CartItemRepository
}

func NewCartUsecase(items repository.CartItemRepository) *CartUsecase {
	return &CartUsecase{items: items}
}

// 外部カタログから受け取った商品情報（そのままスナップショットになる）
type ProductSnapshot struct {
	ProductID int64
	Title     string
	Price     decimal.Decimal
	Thumbnail string
}

type AddCartItemInput struct {
	Product  ProductSnapshot
	Quantity int64
}

type CartOutput struct {
	Items []model.CartItem `json:"items"`
	Total decimal.Decimal  `json:"total"`
}

// 合計はサーバー側で price*quantity を足し上げる
func CartTotal(items []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (u *CartUsecase) List(ctx context.Context, userID int64) (CartOutput, error) {
	items, err := u.items.ListByUserID(ctx, userID)
	if err != nil {
		return CartOutput{}, Integrity(err)
	}
	return CartOutput{Items: items, Total: CartTotal(items)}, nil
}

func validateSnapshot(p ProductSnapshot) (ProductSnapshot, error) {
	if p.ProductID <= 0 {
		return p, Validation("invalid product_id")
	}
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" || utf8.RuneCountInString(p.Title) > maxTitleLen {
		return p, Validation("invalid title")
	}
	if p.Price.IsNegative() {
		return p, Validation("price must not be negative")
	}
	p.Price = p.Price.Round(2)
	p.Thumbnail = strings.TrimSpace(p.Thumbnail)
	return p, nil
}

func validateQuantity(q int64) error {
	if q < 1 || q > maxCartQuantity {
		return Validation("quantity must be between 1 and 999")
	}
	return nil
}

// 同じ商品は数量を加算する。quantity省略時は1。
func (u *CartUsecase) Add(ctx context.Context, userID int64, in AddCartItemInput) (model.CartItem, error) {
	p, err := validateSnapshot(in.Product)
	if err != nil {
		return model.CartItem{}, err
	}
	q := in.Quantity
	if q == 0 {
		q = 1
	}
	if err := validateQuantity(q); err != nil {
		return model.CartItem{}, err
	}

	item := model.CartItem{
		UserID:    userID,
		ProductID: p.ProductID,
		Title:     p.Title,
		Price:     p.Price,
		Thumbnail: p.Thumbnail,
		Quantity:  q,
	}

	out, err := u.items.AddOrIncrement(ctx, item)
	if errors.Is(err, repository.ErrDuplicate) {
		//同時に初回追加が走った。もう一度やれば加算側に入る。
		out, err = u.items.AddOrIncrement(ctx, item)
	}
	if err != nil {
		return model.CartItem{}, Integrity(err)
	}
	if out.Quantity > maxCartQuantity {
		out, err = u.items.UpdateQuantity(ctx, userID, out.ID, maxCartQuantity)
		if err != nil {
			return model.CartItem{}, Integrity(err)
		}
	}
	return out, nil
}

func (u *CartUsecase) UpdateQuantity(ctx context.Context, userID int64, itemID int64, quantity int64) (model.CartItem, error) {
	if itemID <= 0 {
		return model.CartItem{}, Validation("invalid id")
	}
	if err := validateQuantity(quantity); err != nil {
		return model.CartItem{}, err
	}
	out, err := u.items.UpdateQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.CartItem{}, NotFound("cart item not found")
		}
		return model.CartItem{}, Integrity(err)
	}
	return out, nil
}

func (u *CartUsecase) Remove(ctx context.Context, userID int64, itemID int64) error {
	if itemID <= 0 {
		return Validation("invalid id")
	}
	if err := u.items.Delete(ctx, userID, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("cart item not found")
		}
		return Integrity(err)
	}
	return nil
}

func (u *CartUsecase) Clear(ctx context.Context, userID int64) (int64, error) {
	n, err := u.items.DeleteAllByUserID(ctx, userID)
	if err != nil {
		return 0, Integrity(err)
	}
	return n, nil
}
