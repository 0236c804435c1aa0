package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/logger"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// 後続チェーンを辿る上限
const maxRotationChain = 1000

// refresh tokenを1回だけ使える形で交換する。
// 失敗理由（不明・失効・期限切れ・使用済み・同時実行で負け）はすべてinvalid sessionで返す。
func (u *AuthUsecase) Rotate(ctx context.Context, presented string, userAgent string) (SessionOutput, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return SessionOutput{}, errInvalidSession()
	}
	now := u.clock.Now()

	current, err := u.tokens.FindByTokenHash(ctx, hashRefreshToken(presented))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SessionOutput{}, errInvalidSession()
		}
		return SessionOutput{}, Integrity(err)
	}

	switch current.State(now) {
	case model.TokenRotated:
		logger.FromContext(ctx).Warn("refresh_token_reuse_detected",
			zap.Int64("user_id", current.UserID),
			zap.Int64("token_id", current.ID),
			zap.Bool("cascade", u.opts.ReuseCascade),
		)
		if u.opts.ReuseCascade {
			u.revokeChain(ctx, current, now)
		}
		return SessionOutput{}, errInvalidSession()
	case model.TokenRevoked:
		return SessionOutput{}, errInvalidSession()
	case model.TokenExpired:
		// 期限切れはREVOKEDにしておく（後継なし）
		if _, err := u.tokens.Revoke(ctx, current.ID, now); err != nil {
			logger.FromContext(ctx).Warn("refresh_token_expire_revoke_failed", zap.Error(err))
		}
		return SessionOutput{}, errInvalidSession()
	}

	user, err := u.users.FindByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SessionOutput{}, errInvalidSession()
		}
		return SessionOutput{}, Integrity(err)
	}

	//署名は先に済ませる（コミット後に失敗しないように）
	out, err := u.newSession(user, now)
	if err != nil {
		return SessionOutput{}, err
	}
	nextHash := hashRefreshToken(out.RefreshToken)
	ua := truncateUserAgent(userAgent)
	if ua == "" {
		ua = current.UserAgent
	}

	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		//条件付きUPDATE。同時に来たら1つだけ勝つ。
		ok, err := r.RefreshTokens().MarkRotated(ctx, current.ID, nextHash, now)
		if err != nil {
			return Integrity(err)
		}
		if !ok {
			return errInvalidSession()
		}
		next := &model.RefreshToken{
			UserID:    user.ID,
			TokenHash: nextHash,
			UserAgent: ua,
			ExpiresAt: out.RefreshTokenExpiresAt,
		}
		if err := r.RefreshTokens().Create(ctx, next); err != nil {
			return Integrity(err)
		}
		return nil
	})
	if err != nil {
		return SessionOutput{}, asAppError(err)
	}
	return out, nil
}

// 使用済みtokenから後継を辿って生きているものを失効させる
func (u *AuthUsecase) revokeChain(ctx context.Context, from *model.RefreshToken, now time.Time) {
	log := logger.FromContext(ctx)
	next := from.ReplacedByTokenHash
	revoked := 0

	for i := 0; next != nil && *next != "" && i < maxRotationChain; i++ {
		t, err := u.tokens.FindByTokenHash(ctx, *next)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Warn("refresh_chain_lookup_failed", zap.Error(err))
			}
			break
		}
		if t.RevokedAt == nil {
			ok, err := u.tokens.Revoke(ctx, t.ID, now)
			if err != nil {
				log.Warn("refresh_chain_revoke_failed", zap.Int64("token_id", t.ID), zap.Error(err))
				break
			}
			if ok {
				revoked++
			}
		}
		next = t.ReplacedByTokenHash
	}

	log.Info("refresh_chain_revoked", zap.Int64("user_id", from.UserID), zap.Int("revoked", revoked))
}

// ログアウト。何度呼んでも成功（無い/失効済みでもエラーにしない）。
func (u *AuthUsecase) Logout(ctx context.Context, presented string) error {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return nil
	}
	if _, err := u.tokens.RevokeByTokenHash(ctx, hashRefreshToken(presented), u.clock.Now()); err != nil {
		return Integrity(err)
	}
	return nil
}

// 期限切れtokenの掃除（graceを過ぎたものだけ）
func (u *AuthUsecase) PurgeExpired(ctx context.Context, grace time.Duration) (int64, error) {
	if grace < 0 {
		return 0, Validation("grace must not be negative")
	}
	n, err := u.tokens.DeleteExpiredBefore(ctx, u.clock.Now().Add(-grace))
	if err != nil {
		return 0, Integrity(err)
	}
	return n, nil
}
