package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/infra/accesstoken"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	"storefront/internal/infra/logger"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/usecase"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "storectl",
		Short:         "Maintenance commands for the storefront database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSeedAdminCommand())
	cmd.AddCommand(newTokensCommand())
	return cmd
}

// 設定・ロガー・DBをまとめて用意する
type env struct {
	cfg     config.Config
	log     *zap.Logger
	db      *gorm.DB
	cleanup func()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	log, flush := logger.New(logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON, File: cfg.LogFile})
	gormDB, err := db.Connect(cfg)
	if err != nil {
		flush()
		return nil, err
	}
	return &env{
		cfg: cfg,
		log: log,
		db:  gormDB,
		cleanup: func() {
			db.Close(gormDB, log)
			flush()
		},
	}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newAuthUsecase(e *env) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(
		infraRepo.NewUserGormRepository(e.db),
		infraRepo.NewRefreshTokenRepository(e.db),
		infraRepo.NewTxManagerGorm(e.db),
		usecase.NewBcryptPasswordHasher(e.cfg.BcryptCost),
		accesstoken.NewIssuer([]byte(e.cfg.JWTSecret), e.cfg.JWTIssuer, e.cfg.AccessTokenTTL),
		usecase.SystemClock{},
		usecase.UUIDGenerator{},
		events.NopPublisher{},
		usecase.AuthOptions{RefreshTTL: e.cfg.RefreshTokenTTL, ReuseCascade: e.cfg.RefreshReuseCascade},
	)
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(commandContext(cmd))
			if err != nil {
				return err
			}
			defer e.cleanup()

			if err := db.Migrate(e.db); err != nil {
				return err
			}
			e.log.Info("migrate done", zap.String("driver", e.cfg.DBDriver))
			return nil
		},
	}
}

func newSeedAdminCommand() *cobra.Command {
	var (
		email    string
		password string
		nickname string
	)

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin user, or promote it if it already exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.cleanup()

			if email == "" {
				email = e.cfg.AdminEmail
			}
			if password == "" {
				password = e.cfg.AdminPassword
			}
			if nickname == "" {
				nickname = e.cfg.AdminNickname
			}
			if email == "" {
				return fmt.Errorf("--email or ADMIN_EMAIL is required")
			}

			if err := db.Migrate(e.db); err != nil {
				return err
			}
			created, err := newAuthUsecase(e).EnsureAdmin(ctx, email, password, nickname)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s (created=%t)\n", email, created)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email (defaults to ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (defaults to ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Admin nickname (defaults to ADMIN_NICKNAME)")
	return cmd
}

func newTokensCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Refresh token maintenance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newTokensPurgeCommand())
	return cmd
}

func newTokensPurgeCommand() *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete refresh tokens that expired before now minus the grace period",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.cleanup()

			n, err := newAuthUsecase(e).PurgeExpired(ctx, grace)
			if err != nil {
				return err
			}
			e.log.Info("refresh tokens purged", zap.Int64("deleted", n), zap.Duration("grace", grace))
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired refresh tokens\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&grace, "grace", 24*time.Hour, "Keep tokens that expired within this window")
	return cmd
}
