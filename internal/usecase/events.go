package usecase

import (
	"context"
	"time"

	"storefront/internal/infra/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	TopicUserEvents  = "user_events"
	TopicOrderEvents = "order_events"

	EventUserRegistered = "user_registered"
	EventOrderPlaced    = "order_placed"
)

// 送信時の共通フォーマット
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type UserRegisteredPayload struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

type OrderPlacedPayload struct {
	OrderID int64           `json:"order_id"`
	UserID  int64           `json:"user_id"`
	Total   decimal.Decimal `json:"total"`
	Items   int             `json:"items"`
}

const publishTimeout = 3 * time.Second

// コミット後に送る。失敗してもリクエストは成功のまま（ログだけ残す）。
func publishEvent(ctx context.Context, pub EventPublisher, ids IDGenerator, clock Clock, topic, key, typ string, payload any) {
	if pub == nil {
		return
	}
	ev := Event{
		ID:         ids.NewID(),
		Type:       typ,
		OccurredAt: clock.Now(),
		Payload:    payload,
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := pub.Publish(pctx, topic, key, ev); err != nil {
		logger.FromContext(ctx).Warn("event_publish_failed",
			zap.String("topic", topic),
			zap.String("type", typ),
			zap.String("event_id", ev.ID),
			zap.Error(err),
		)
	}
}
