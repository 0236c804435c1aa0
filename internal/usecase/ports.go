package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/model"

	"github.com/google/uuid"
)

// 現在時刻（テストで差し替える）
type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain string, hashed string) bool
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(id model.Identity, now time.Time) (token string, expiresAt time.Time, err error)
}

// イベント送信（kafka / nop）
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
