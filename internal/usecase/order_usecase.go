package usecase

import (
	"context"
	"strconv"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/logger"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const myOrdersLimit = 50

type OrderUsecase struct {
	tx         repository.TransactionManager
	orders     repository.OrderRepository
	orderItems repository.OrderItemRepository
	events     EventPublisher
	idGen      IDGenerator
	clock      Clock
}

func NewOrderUsecase(
	tx repository.TransactionManager,
	orders repository.OrderRepository,
	orderItems repository.OrderItemRepository,
	events EventPublisher,
	idGen IDGenerator,
	clock Clock,
) *OrderUsecase {
	return &OrderUsecase{
		tx:         tx,
		orders:     orders,
		orderItems: orderItems,
		events:     events,
		idGen:      idGen,
		clock:      clock,
	}
}

type CheckoutOutput struct {
	OrderID int64           `json:"orderId"`
	Total   decimal.Decimal `json:"total"`
	Items   int             `json:"items"`
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Thumbnail string          `json:"thumbnail"`
}

type OrderOutput struct {
	ID          int64             `json:"id"`
	Status      model.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	CreatedAt   time.Time         `json:"created_at"`
	Items       []OrderItemOutput `json:"items"`
}

// カートを注文に確定する。
// 注文作成・明細作成・カート削除は1トランザクションで、どれか失敗したら全部戻す。
func (u *OrderUsecase) Checkout(ctx context.Context, userID int64) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, Unauthenticated("unauthorized")
	}

	var out CheckoutOutput

	err := u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		cart, err := r.CartItems().ListByUserIDForUpdate(ctx, userID)
		if err != nil {
			return Integrity(err)
		}
		if len(cart) == 0 {
			return Validation("cart is empty")
		}

		//クライアントの合計は使わない
		total := CartTotal(cart)

		order := &model.Order{
			UserID:      userID,
			Status:      model.OrderStatusCompleted,
			TotalAmount: total,
		}
		if err := r.Orders().Create(ctx, order); err != nil {
			return Integrity(err)
		}

		items := make([]model.OrderItem, 0, len(cart))
		ids := make([]int64, 0, len(cart))
		for _, ci := range cart {
			items = append(items, model.OrderItem{
				OrderID:   order.ID,
				ProductID: ci.ProductID,
				Title:     ci.Title,
				Price:     ci.Price,
				Quantity:  ci.Quantity,
				Thumbnail: ci.Thumbnail,
			})
			ids = append(ids, ci.ID)
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return Integrity(err)
		}

		//読んだ行だけを消す。件数が合わなければ途中で変更された。
		n, err := r.CartItems().DeleteByIDs(ctx, userID, ids)
		if err != nil {
			return Integrity(err)
		}
		if n != int64(len(ids)) {
			return Conflict("cart changed during checkout, please retry")
		}

		out = CheckoutOutput{OrderID: order.ID, Total: total, Items: len(items)}
		return nil
	})
	if err != nil {
		if KindOf(err) == KindIntegrity {
			logger.FromContext(ctx).Error("checkout_rolled_back", zap.Int64("user_id", userID), zap.Error(err))
		}
		return CheckoutOutput{}, asAppError(err)
	}

	publishEvent(ctx, u.events, u.idGen, u.clock, TopicOrderEvents, strconv.FormatInt(userID, 10), EventOrderPlaced, OrderPlacedPayload{
		OrderID: out.OrderID,
		UserID:  userID,
		Total:   out.Total,
		Items:   out.Items,
	})

	return out, nil
}

// 自分の注文（新しい順）と明細
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	orders, _, err := u.orders.ListByUserID(ctx, userID, 1, myOrdersLimit)
	if err != nil {
		return nil, Integrity(err)
	}
	if len(orders) == 0 {
		return []OrderOutput{}, nil
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := u.orderItems.ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, Integrity(err)
	}

	byOrder := make(map[int64][]OrderItemOutput, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], OrderItemOutput{
			ProductID: it.ProductID,
			Title:     it.Title,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Thumbnail: it.Thumbnail,
		})
	}

	out := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		lines := byOrder[o.ID]
		if lines == nil {
			lines = []OrderItemOutput{}
		}
		out = append(out, OrderOutput{
			ID:          o.ID,
			Status:      o.Status,
			TotalAmount: o.TotalAmount,
			CreatedAt:   o.CreatedAt,
			Items:       lines,
		})
	}
	return out, nil
}
