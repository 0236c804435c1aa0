package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AuthJWTの後ろに置く。adminだけ通す。
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("UNAUTHORIZED", "authentication required"))
			}
			if !id.Role.IsAdmin() {
				return c.JSON(http.StatusForbidden, errorJSON("FORBIDDEN", "admin only"))
			}
			return next(c)
		}
	}
}
