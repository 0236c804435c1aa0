package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文時点の明細スナップショット（外部カタログは参照しない）
type OrderItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"not null;index" json:"order_id"`
	ProductID int64           `gorm:"not null;index" json:"product_id"`
	Title     string          `gorm:"type:varchar(255);not null" json:"title"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	Thumbnail string          `gorm:"type:text" json:"thumbnail"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
