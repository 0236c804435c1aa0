package usecase

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/accesstoken"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// テスト用の時計（進められる）
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "evt-" + strconv.Itoa(g.n)
}

// 送られたイベントを覚えておく
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	if ev, ok := event.(Event); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

const (
	testSecret     = "test-secret-test-secret-test-secret"
	testRefreshTTL = 7 * 24 * time.Hour
	testPassword   = "correct-horse-battery"
)

type testEnv struct {
	db     *gorm.DB
	clock  *fakeClock
	events *recordingPublisher
	issuer *accesstoken.Issuer
	txm    repository.TransactionManager

	users    repository.UserRepository
	tokens   repository.RefreshTokenRepository
	cart     repository.CartItemRepository
	orders   repository.OrderRepository
	items    repository.OrderItemRepository
	reviews  repository.ReviewRepository
	settings repository.SettingRepository
	audit    repository.AuditLogRepository

	auth *AuthUsecase
}

func newTestEnv(t *testing.T, opts ...func(*AuthOptions)) *testEnv {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	clock := newFakeClock()
	env := &testEnv{
		db:       gdb,
		clock:    clock,
		events:   &recordingPublisher{},
		issuer:   accesstoken.NewIssuer([]byte(testSecret), "storefront-test", 15*time.Minute, accesstoken.WithNow(clock.Now)),
		txm:      infraRepo.NewTxManagerGorm(gdb),
		users:    infraRepo.NewUserGormRepository(gdb),
		tokens:   infraRepo.NewRefreshTokenRepository(gdb),
		cart:     infraRepo.NewCartItemGormRepository(gdb),
		orders:   infraRepo.NewOrderGormRepository(gdb),
		items:    infraRepo.NewOrderItemGormRepository(gdb),
		reviews:  infraRepo.NewReviewGormRepository(gdb),
		settings: infraRepo.NewSettingGormRepository(gdb),
		audit:    infraRepo.NewAuditLogGormRepository(gdb),
	}

	ao := AuthOptions{RefreshTTL: testRefreshTTL}
	for _, o := range opts {
		o(&ao)
	}
	env.auth = NewAuthUsecase(
		env.users, env.tokens, env.txm,
		NewBcryptPasswordHasher(bcrypt.MinCost),
		env.issuer, env.clock, &seqIDs{}, env.events, ao,
	)
	return env
}

func withCascade(o *AuthOptions) { o.ReuseCascade = true }

// 登録してユーザーを返す
func (e *testEnv) register(t *testing.T, email, nickname string) *model.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: testPassword,
		Nickname: nickname,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) login(t *testing.T, email string) SessionOutput {
	t.Helper()
	out, err := e.auth.Login(context.Background(), LoginInput{Email: email, Password: testPassword, UserAgent: "go-test"})
	require.NoError(t, err)
	return out
}

func (e *testEnv) tokenRow(t *testing.T, plain string) *model.RefreshToken {
	t.Helper()
	rt, err := e.tokens.FindByTokenHash(context.Background(), hashRefreshToken(plain))
	require.NoError(t, err)
	return rt
}

func (e *testEnv) count(t *testing.T, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "err=%v", err)
}
