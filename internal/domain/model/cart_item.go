package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細（ユーザー×商品で1行）
// 商品情報は追加時点のスナップショットを保存する。
type CartItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64           `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"-"`
	ProductID int64           `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"product_id"`
	Title     string          `gorm:"type:varchar(255);not null" json:"title"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Thumbnail string          `gorm:"type:text" json:"thumbnail"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}
