package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"storefront/internal/handler"
	"storefront/internal/infra/accesstoken"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testPassword = "correct-horse-battery"
	adminEmail   = "admin@example.com"
)

type testServer struct {
	URL  string
	DB   *gorm.DB
	Auth *usecase.AuthUsecase
}

// sqliteと本物のusecase/handlerでサーバーを立てる
func newTestServer(t *testing.T, loginBurst int) *testServer {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	users := infraRepo.NewUserGormRepository(gdb)
	tokens := infraRepo.NewRefreshTokenRepository(gdb)
	txm := infraRepo.NewTxManagerGorm(gdb)
	publisher := events.New(nil)

	clock := usecase.SystemClock{}
	ids := usecase.UUIDGenerator{}
	issuer := accesstoken.NewIssuer([]byte("e2e-secret"), "storefront-e2e", 15*time.Minute)
	ttl := 7 * 24 * time.Hour

	authUC := usecase.NewAuthUsecase(users, tokens, txm, usecase.NewBcryptPasswordHasher(bcrypt.MinCost),
		issuer, clock, ids, publisher, usecase.AuthOptions{RefreshTTL: ttl})
	_, err = authUC.EnsureAdmin(context.Background(), adminEmail, testPassword, "admin")
	require.NoError(t, err)

	e := New(zap.NewNop(), Options{FrontendURL: "http://localhost:3000"})
	RegisterRoutes(e, Handlers{
		Auth:    handler.NewAuthHandler(authUC, handler.CookieConfig{TTL: ttl}),
		Profile: handler.NewProfileHandler(usecase.NewProfileUsecase(users)),
		Cart:    handler.NewCartHandler(usecase.NewCartUsecase(infraRepo.NewCartItemGormRepository(gdb))),
		Order: handler.NewOrderHandler(usecase.NewOrderUsecase(txm,
			infraRepo.NewOrderGormRepository(gdb), infraRepo.NewOrderItemGormRepository(gdb), publisher, ids, clock)),
		Review:         handler.NewReviewHandler(usecase.NewReviewUsecase(infraRepo.NewReviewGormRepository(gdb))),
		ProductOfMonth: handler.NewProductOfMonthHandler(usecase.NewProductOfMonthUsecase(infraRepo.NewSettingGormRepository(gdb), txm, clock)),
		AdminUser:      handler.NewAdminUserHandler(usecase.NewAdminUsecase(txm, infraRepo.NewAuditLogGormRepository(gdb), clock)),
		Health: handler.NewHealthHandler(func(ctx context.Context) error {
			return db.Ping(ctx, gdb)
		}),
	}, handler.Guards{
		Auth:       middleware.AuthJWT(issuer),
		Admin:      middleware.RequireAdmin(),
		LoginLimit: middleware.RateLimit(middleware.NewMemoryLimiter(0.001, loginBurst)),
	})

	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		srv.Close()
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &testServer{URL: srv.URL, DB: gdb, Auth: authUC}
}

type TestClient struct {
	BaseURL string
	HTTP    *http.Client
}

func (s *testServer) NewClient(t *testing.T) *TestClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &TestClient{
		BaseURL: s.URL,
		HTTP:    &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type SessionResponse struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	Nickname        string `json:"nickname"`
	PreferenceTheme string `json:"preference_theme"`
	AccessToken     string `json:"accessToken"`
}

func (c *TestClient) doJSON(t *testing.T, method, path, bearer string, body any) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTP.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func requireStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equal(t, want, resp.StatusCode, "body=%s", string(body))
}

func mustDecode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body=%s", string(body))
	return v
}

func (c *TestClient) refreshCookie(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(c.BaseURL)
	require.NoError(t, err)
	for _, ck := range c.HTTP.Jar.Cookies(u) {
		if ck.Name == "refreshToken" {
			return ck.Value
		}
	}
	return ""
}

func (c *TestClient) register(t *testing.T, email, nickname string) {
	t.Helper()
	resp, body := c.doJSON(t, http.MethodPost, "/api/register", "", map[string]string{
		"email": email, "password": testPassword, "nickname": nickname,
	})
	requireStatus(t, resp, http.StatusCreated, body)
}

func (c *TestClient) login(t *testing.T, email string) SessionResponse {
	t.Helper()
	resp, body := c.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": testPassword,
	})
	requireStatus(t, resp, http.StatusOK, body)
	return mustDecode[SessionResponse](t, body)
}
