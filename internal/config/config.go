package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string `env:"PORT,default=8080"`                    // サーバーポート
	GoEnv string `env:"GO_ENV,default=dev"`                   // dev/prod
	FEURL string `env:"FE_URL,default=http://localhost:5173"` // フロントURL（CORS）

	DBDriver         string `env:"DB_DRIVER,default=postgres"` // postgres/mysql/sqlite
	DatabaseURL      string `env:"DATABASE_URL"`               // あれば最優先
	PostgresUser     string `env:"POSTGRES_USER,default=postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,default=postgres"`
	PostgresDB       string `env:"POSTGRES_DB,default=storefront"`
	PostgresHost     string `env:"POSTGRES_HOST,default=localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT,default=5432"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE,default=disable"`
	DBMaxOpenConns   int    `env:"DB_MAX_OPEN_CONNS,default=20"`
	DBMaxIdleConns   int    `env:"DB_MAX_IDLE_CONNS,default=5"`

	JWTSecret           string        `env:"JWT_SECRET"` // JWT署名シークレット
	JWTIssuer           string        `env:"JWT_ISSUER,default=storefront"`
	AccessTokenTTL      time.Duration `env:"ACCESS_TOKEN_TTL,default=15m"`
	RefreshTokenTTL     time.Duration `env:"REFRESH_TOKEN_TTL,default=168h"`
	RefreshReuseCascade bool          `env:"REFRESH_REUSE_CASCADE,default=false"` // 再利用検知で後続チェーンも失効
	CookieSecure        bool          `env:"COOKIE_SECURE,default=true"`
	BcryptCost          int           `env:"BCRYPT_COST,default=12"`

	LoginRateRPS   float64 `env:"LOGIN_RATE_RPS,default=1"`
	LoginRateBurst int     `env:"LOGIN_RATE_BURST,default=5"`
	RedisAddr      string  `env:"REDIS_ADDR"` // 設定時はredisでレート制限を共有
	RedisPassword  string  `env:"REDIS_PASSWORD"`
	RedisDB        int     `env:"REDIS_DB,default=0"`

	KafkaBrokers []string `env:"KAFKA_BROKERS"` // 空ならイベント送信しない

	LogLevel string `env:"LOG_LEVEL,default=info"`
	LogJSON  bool   `env:"LOG_JSON,default=false"`
	LogFile  string `env:"LOG_FILE"` // 設定時はlumberjackでローテーション

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// 起動時に用意する管理者（任意）
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminNickname string `env:"ADMIN_NICKNAME,default=admin"`
}

// .env（あれば）→ 環境変数の順で読む
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

//必須チェック
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProd() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes in prod")
	}
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres, mysql or sqlite")
	}
	if c.DBDriver != "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for %s", c.DBDriver)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	}
	if c.LoginRateRPS <= 0 || c.LoginRateBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_RPS and LOGIN_RATE_BURST must be positive")
	}
	return nil
}

func (c Config) IsProd() bool {
	return strings.EqualFold(c.GoEnv, "prod") || strings.EqualFold(c.GoEnv, "production")
}

// ":8080"形式
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// DATABASE_URLが無ければPOSTGRES_*から組み立てる
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}
