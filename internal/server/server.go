package server

import (
	"net/http"

	"storefront/internal/infra/metrics"
	appmw "storefront/internal/middleware"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Options struct {
	FrontendURL string
	BodyLimit   string
}

// echoの共通ミドルウェアを組んで返す。ルートはRegisterRoutesで足す。
func New(log *zap.Logger, opt Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(appmw.RequestLogger(log))
	e.Use(metrics.Middleware())

	limit := opt.BodyLimit
	if limit == "" {
		limit = "1M"
	}
	e.Use(echomw.BodyLimit(limit))

	// refresh cookieを送るのでcredentialsを許可する
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{opt.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	return e
}
