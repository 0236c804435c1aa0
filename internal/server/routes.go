package server

import (
	"storefront/internal/handler"
	"storefront/internal/infra/metrics"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth           *handler.AuthHandler
	Profile        *handler.ProfileHandler
	Cart           *handler.CartHandler
	Order          *handler.OrderHandler
	Review         *handler.ReviewHandler
	ProductOfMonth *handler.ProductOfMonthHandler
	AdminUser      *handler.AdminUserHandler
	Health         *handler.HealthHandler
}

// /api 配下と運用系（/health, /metrics）を登録
func RegisterRoutes(e *echo.Echo, h Handlers, g handler.Guards) {
	api := e.Group("/api")

	h.Auth.RegisterRoutes(api, g)
	h.Profile.RegisterRoutes(api, g)
	h.Cart.RegisterRoutes(api, g)
	h.Order.RegisterRoutes(api, g)
	h.Review.RegisterRoutes(api, g)
	h.ProductOfMonth.RegisterRoutes(api, g)
	h.AdminUser.RegisterRoutes(api, g)

	h.Health.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}
