package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/infra/logger"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// usecaseのエラーをステータスとJSONに変換する。500は中身を出さずにログだけ残す。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := usecase.AsAppError(err); ok {
		if ae.Kind == usecase.KindIntegrity {
			logger.FromContext(c.Request().Context()).Error("request_failed", zap.Error(err))
		}
		return c.JSON(ae.Kind.Status(), ErrorResponse{Error: ae.Kind.Code(), Message: ae.Message})
	}

	logger.FromContext(c.Request().Context()).Error("request_failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL", Message: "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR", Message: msg})
}

// AuthJWTを通っていれば必ず入っている
func getIdentity(c echo.Context) (model.Identity, bool) {
	return middleware.IdentityFrom(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED", Message: "authentication required"})
}

// パスパラメータの正のID
func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ルート登録時に渡すミドルウェア
type Guards struct {
	Auth       echo.MiddlewareFunc
	Admin      echo.MiddlewareFunc
	LoginLimit echo.MiddlewareFunc
}
