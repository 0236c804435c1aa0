package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// 管理者向けのユーザー操作と監査ログ。変更と監査ログは同じtxで書く。
type AdminUsecase struct {
	tx        repository.TransactionManager
	auditLogs repository.AuditLogRepository
	clock     Clock
}

func NewAdminUsecase(tx repository.TransactionManager, auditLogs repository.AuditLogRepository, clock Clock) *AdminUsecase {
	return &AdminUsecase{tx: tx, auditLogs: auditLogs, clock: clock}
}

type RevokeSessionsOutput struct {
	UserID  int64 `json:"user_id"`
	Revoked int64 `json:"revoked"`
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func (u *AdminUsecase) ChangeRole(ctx context.Context, actorID int64, targetID int64, role string) (*model.User, error) {
	if targetID <= 0 {
		return nil, Validation("invalid user_id")
	}
	next, err := model.ParseRole(role)
	if err != nil {
		return nil, Validation("role must be user or admin")
	}
	//自分を降格すると管理者がいなくなりうる
	if actorID == targetID && !next.IsAdmin() {
		return nil, Validation("cannot demote yourself")
	}

	var out *model.User
	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		user, err := r.Users().FindByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFound("user not found")
			}
			return Integrity(err)
		}
		before := user.Role
		if before == next {
			out = user
			return nil
		}

		if err := r.Users().UpdateRole(ctx, targetID, next); err != nil {
			return Integrity(err)
		}
		user.Role = next

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionUpdateUserRole,
			ResourceType: model.AuditResourceUser,
			ResourceID:   targetID,
			BeforeJSON:   toJSON(map[string]any{"role": before}),
			AfterJSON:    toJSON(map[string]any{"role": next}),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return Integrity(err)
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return out, nil
}

// 対象ユーザーの生きているrefresh tokenを全部失効させる
func (u *AdminUsecase) RevokeSessions(ctx context.Context, actorID int64, targetID int64) (RevokeSessionsOutput, error) {
	if targetID <= 0 {
		return RevokeSessionsOutput{}, Validation("invalid user_id")
	}

	var out RevokeSessionsOutput
	err := u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		if _, err := r.Users().FindByID(ctx, targetID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFound("user not found")
			}
			return Integrity(err)
		}

		now := u.clock.Now()
		n, err := r.RefreshTokens().RevokeAllByUserID(ctx, targetID, now)
		if err != nil {
			return Integrity(err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionRevokeSessions,
			ResourceType: model.AuditResourceUser,
			ResourceID:   targetID,
			BeforeJSON:   "{}",
			AfterJSON:    toJSON(map[string]any{"revoked": n}),
			CreatedAt:    now,
		}); err != nil {
			return Integrity(err)
		}
		out = RevokeSessionsOutput{UserID: targetID, Revoked: n}
		return nil
	})
	if err != nil {
		return RevokeSessionsOutput{}, asAppError(err)
	}
	return out, nil
}

type AuditLogQuery struct {
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

func (u *AdminUsecase) ListAuditLogs(ctx context.Context, q AuditLogQuery) ([]model.AuditLog, error) {
	f := repository.AuditLogFilter{
		ActorUserID: q.ActorUserID,
		ResourceID:  q.ResourceID,
		CreatedFrom: q.From,
		CreatedTo:   q.To,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if f.Limit <= 0 {
		f.Limit = defaultAuditLimit
	}
	if f.Limit > maxAuditLimit {
		f.Limit = maxAuditLimit
	}
	if f.Offset < 0 {
		return nil, Validation("offset must not be negative")
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, Validation("from must be before to")
	}

	if q.Action != "" {
		a := model.AuditAction(q.Action)
		switch a {
		case model.AuditActionUpdateUserRole, model.AuditActionRevokeSessions, model.AuditActionSetProductOfMonth:
		default:
			return nil, Validation("invalid action")
		}
		f.Action = &a
	}
	if q.ResourceType != "" {
		rt := model.AuditResourceType(q.ResourceType)
		switch rt {
		case model.AuditResourceUser, model.AuditResourceSetting:
		default:
			return nil, Validation("invalid resource_type")
		}
		f.ResourceType = &rt
	}

	logs, err := u.auditLogs.List(ctx, f)
	if err != nil {
		return nil, Integrity(err)
	}
	return logs, nil
}
