package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func createUser(t *testing.T, gdb *gorm.DB, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, PasswordHash: "x", Nickname: "nick", Role: model.RoleUser, Theme: model.ThemeLight}
	require.NoError(t, NewUserGormRepository(gdb).Create(context.Background(), u))
	return u
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
}

func TestUserRepository_DuplicateAndNotFound(t *testing.T) {
	gdb := openTestDB(t)
	users := NewUserGormRepository(gdb)
	ctx := context.Background()

	createUser(t, gdb, "dup@example.com")
	err := users.Create(ctx, &model.User{Email: "dup@example.com", PasswordHash: "x", Nickname: "again"})
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	_, err = users.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, users.UpdateTheme(ctx, 999, model.ThemeDark), repo.ErrNotFound)
}

func TestRefreshTokenRepository_ConditionalUpdates(t *testing.T) {
	gdb := openTestDB(t)
	u := createUser(t, gdb, "rt@example.com")
	tokens := NewRefreshTokenRepository(gdb)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	rt := &model.RefreshToken{UserID: u.ID, TokenHash: "h1", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, tokens.Create(ctx, rt))
	assert.ErrorIs(t, tokens.Create(ctx, &model.RefreshToken{UserID: u.ID, TokenHash: "h1", ExpiresAt: now}), repo.ErrDuplicate)

	ok, err := tokens.MarkRotated(ctx, rt.ID, "h2", now)
	require.NoError(t, err)
	assert.True(t, ok)

	// 2回目は負ける
	ok, err = tokens.MarkRotated(ctx, rt.ID, "h3", now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := tokens.FindByTokenHash(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, got.ReplacedByTokenHash)
	assert.Equal(t, "h2", *got.ReplacedByTokenHash)
	assert.Equal(t, model.TokenRotated, got.State(now))

	ok, err = tokens.Revoke(ctx, rt.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = tokens.FindByTokenHash(ctx, "missing")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestRefreshTokenRepository_RevokeAllAndPurge(t *testing.T) {
	gdb := openTestDB(t)
	a := createUser(t, gdb, "a@example.com")
	b := createUser(t, gdb, "b@example.com")
	tokens := NewRefreshTokenRepository(gdb)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, hash := range []string{"a1", "a2"} {
		require.NoError(t, tokens.Create(ctx, &model.RefreshToken{UserID: a.ID, TokenHash: hash, ExpiresAt: now.Add(time.Duration(i+1) * time.Hour)}))
	}
	require.NoError(t, tokens.Create(ctx, &model.RefreshToken{UserID: b.ID, TokenHash: "b1", ExpiresAt: now.Add(-48 * time.Hour)}))

	n, err := tokens.RevokeAllByUserID(ctx, a.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = tokens.RevokeAllByUserID(ctx, a.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	ok, err := tokens.RevokeByTokenHash(ctx, "b1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err = tokens.DeleteExpiredBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCartItemRepository_AddOrIncrementAndDelete(t *testing.T) {
	gdb := openTestDB(t)
	u := createUser(t, gdb, "cart@example.com")
	other := createUser(t, gdb, "other@example.com")
	cart := NewCartItemGormRepository(gdb)
	ctx := context.Background()

	item := model.CartItem{UserID: u.ID, ProductID: 1, Title: "first", Price: decimal.RequireFromString("3.25"), Quantity: 2}
	first, err := cart.AddOrIncrement(ctx, item)
	require.NoError(t, err)

	item.Title = "renamed"
	item.Quantity = 3
	second, err := cart.AddOrIncrement(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(5), second.Quantity)
	assert.Equal(t, "first", second.Title)
	assert.True(t, decimal.RequireFromString("3.25").Equal(second.Price))

	_, err = cart.FindByID(ctx, other.ID, first.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	n, err := cart.DeleteByIDs(ctx, other.ID, []int64{first.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = cart.DeleteByIDs(ctx, u.ID, []int64{first.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.ErrorIs(t, cart.Delete(ctx, u.ID, first.ID), repo.ErrNotFound)
}

func TestSettingRepository_Upsert(t *testing.T) {
	gdb := openTestDB(t)
	settings := NewSettingGormRepository(gdb)
	ctx := context.Background()

	_, err := settings.Get(ctx, model.SettingProductOfMonth)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, settings.Upsert(ctx, model.SettingProductOfMonth, "5"))
	require.NoError(t, settings.Upsert(ctx, model.SettingProductOfMonth, "6"))

	v, err := settings.Get(ctx, model.SettingProductOfMonth)
	require.NoError(t, err)
	assert.Equal(t, "6", v)

	var n int64
	require.NoError(t, gdb.Model(&model.Setting{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestAuditLogRepository_ListFilters(t *testing.T) {
	gdb := openTestDB(t)
	logs := NewAuditLogGormRepository(gdb)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	entries := []model.AuditLog{
		{ActorUserID: 1, Action: model.AuditActionUpdateUserRole, ResourceType: model.AuditResourceUser, ResourceID: 10, CreatedAt: base},
		{ActorUserID: 1, Action: model.AuditActionRevokeSessions, ResourceType: model.AuditResourceUser, ResourceID: 11, CreatedAt: base.Add(time.Hour)},
		{ActorUserID: 2, Action: model.AuditActionSetProductOfMonth, ResourceType: model.AuditResourceSetting, ResourceKey: model.SettingProductOfMonth, CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, logs.Create(ctx, e))
	}

	all, err := logs.List(ctx, repo.AuditLogFilter{Limit: 50})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// 新しい順
	assert.Equal(t, model.AuditActionSetProductOfMonth, all[0].Action)

	actor := int64(1)
	byActor, err := logs.List(ctx, repo.AuditLogFilter{ActorUserID: &actor, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, byActor, 2)

	from := base.Add(30 * time.Minute)
	since, err := logs.List(ctx, repo.AuditLogFilter{CreatedFrom: &from, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, since, 2)

	page, err := logs.List(ctx, repo.AuditLogFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, model.AuditActionRevokeSessions, page[0].Action)
}
