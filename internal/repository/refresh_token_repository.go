package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// リフレッシュトークンの保存・取得・失効
// 失効系はすべて「revoked_at IS NULL」を条件にした更新で、戻り値は更新できたかどうか。
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	//生きている行だけを ROTATED にする
	MarkRotated(ctx context.Context, tokenID int64, replacedByHash string, at time.Time) (bool, error)
	Revoke(ctx context.Context, tokenID int64, at time.Time) (bool, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string, at time.Time) (bool, error)
	RevokeAllByUserID(ctx context.Context, userID int64, at time.Time) (int64, error)
	//期限切れの行を削除する
	DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error)
}
