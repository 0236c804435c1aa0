package usecase

import (
	"context"
	"errors"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

// 外部カタログのIDの範囲
const (
	minCatalogProductID = 1
	maxCatalogProductID = 100
)

type ProductOfMonthOutput struct {
	ProductID *int64 `json:"productId"`
}

// 今月の商品（settingsテーブルのproduct_month_id）
type ProductOfMonthUsecase struct {
	settings repository.SettingRepository
	tx       repository.TransactionManager
	clock    Clock
}

func NewProductOfMonthUsecase(settings repository.SettingRepository, tx repository.TransactionManager, clock Clock) *ProductOfMonthUsecase {
	return &ProductOfMonthUsecase{settings: settings, tx: tx, clock: clock}
}

// 未設定ならProductIDはnull
func (u *ProductOfMonthUsecase) Get(ctx context.Context) (ProductOfMonthOutput, error) {
	v, err := u.settings.Get(ctx, model.SettingProductOfMonth)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ProductOfMonthOutput{}, nil
		}
		return ProductOfMonthOutput{}, Integrity(err)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return ProductOfMonthOutput{}, Integrity(err)
	}
	return ProductOfMonthOutput{ProductID: &id}, nil
}

func (u *ProductOfMonthUsecase) Set(ctx context.Context, actorID int64, productID int64) (ProductOfMonthOutput, error) {
	if productID < minCatalogProductID || productID > maxCatalogProductID {
		return ProductOfMonthOutput{}, Validation("productId must be between 1 and 100")
	}
	value := strconv.FormatInt(productID, 10)

	err := u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		before, err := r.Settings().Get(ctx, model.SettingProductOfMonth)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return Integrity(err)
		}
		if err := r.Settings().Upsert(ctx, model.SettingProductOfMonth, value); err != nil {
			return Integrity(err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionSetProductOfMonth,
			ResourceType: model.AuditResourceSetting,
			ResourceKey:  model.SettingProductOfMonth,
			BeforeJSON:   toJSON(map[string]any{"value": before}),
			AfterJSON:    toJSON(map[string]any{"value": value}),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return Integrity(err)
		}
		return nil
	})
	if err != nil {
		return ProductOfMonthOutput{}, asAppError(err)
	}
	return ProductOfMonthOutput{ProductID: &productID}, nil
}
