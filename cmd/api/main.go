package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/accesstoken"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	"storefront/internal/infra/logger"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/telemetry"
	"storefront/internal/middleware"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "storefront-api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// ロガー前なので標準エラーへ
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, cleanup := logger.New(logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON, File: cfg.LogFile})
	defer cleanup()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("api_exited", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close(gormDB, log)
	log.Info("database connected", zap.String("driver", cfg.DBDriver))

	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//トレース（endpoint未設定なら何もしない）
	shutdownTracing, wrap, err := telemetry.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	//イベント送信
	publisher := events.New(cfg.KafkaBrokers)
	if len(cfg.KafkaBrokers) > 0 {
		log.Info("kafka publisher enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}
	defer func() { _ = publisher.Close() }()

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	cartRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	settingRepo := infraRepo.NewSettingGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	clock := usecase.SystemClock{}
	idGen := usecase.UUIDGenerator{}
	hasher := usecase.NewBcryptPasswordHasher(cfg.BcryptCost)
	issuer := accesstoken.NewIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTokenTTL)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, rtRepo, txm, hasher, issuer, clock, idGen, publisher, usecase.AuthOptions{
		RefreshTTL:   cfg.RefreshTokenTTL,
		ReuseCascade: cfg.RefreshReuseCascade,
	})
	profileUC := usecase.NewProfileUsecase(userRepo)
	cartUC := usecase.NewCartUsecase(cartRepo)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, orderItemRepo, publisher, idGen, clock)
	reviewUC := usecase.NewReviewUsecase(reviewRepo)
	pomUC := usecase.NewProductOfMonthUsecase(settingRepo, txm, clock)
	adminUC := usecase.NewAdminUsecase(txm, auditRepo, clock)

	//管理者の用意（任意）
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := authUC.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminNickname)
		if err != nil {
			return err
		}
		log.Info("admin ensured", zap.String("email", cfg.AdminEmail), zap.Bool("created", created))
	}

	//ログインのレート制限（redisがあれば共有）
	var limiter middleware.Limiter = middleware.NewMemoryLimiter(cfg.LoginRateRPS, cfg.LoginRateBurst)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() { _ = rdb.Close() }()
		limiter = middleware.NewRedisLimiter(rdb, cfg.LoginRateRPS, cfg.LoginRateBurst)
		log.Info("redis rate limiter enabled", zap.String("addr", cfg.RedisAddr))
	}

	//Handler生成
	cookie := handler.CookieConfig{Secure: cfg.CookieSecure, TTL: cfg.RefreshTokenTTL}
	guards := handler.Guards{
		Auth:       middleware.AuthJWT(issuer),
		Admin:      middleware.RequireAdmin(),
		LoginLimit: middleware.RateLimit(limiter),
	}

	e := server.New(log, server.Options{FrontendURL: cfg.FEURL})
	server.RegisterRoutes(e, server.Handlers{
		Auth:           handler.NewAuthHandler(authUC, cookie),
		Profile:        handler.NewProfileHandler(profileUC),
		Cart:           handler.NewCartHandler(cartUC),
		Order:          handler.NewOrderHandler(orderUC),
		Review:         handler.NewReviewHandler(reviewUC),
		ProductOfMonth: handler.NewProductOfMonthHandler(pomUC),
		AdminUser:      handler.NewAdminUserHandler(adminUC),
		Health: handler.NewHealthHandler(func(ctx context.Context) error {
			return db.Ping(ctx, gormDB)
		}),
	}, guards)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           wrap(e),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api starting", zap.String("addr", srv.Addr), zap.String("env", cfg.GoEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		//シグナルかサーバー停止で終了
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return err
		}
		log.Info("api stopped gracefully")
		return nil
	})
	return g.Wait()
}
