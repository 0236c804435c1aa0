package middleware

import (
	"net/http"
	"strings"

	"storefront/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// echo.Contextに本人情報を入れるキー
const CtxIdentityKey = "identity"

// access tokenを検証してIdentityを返す（accesstoken.Issuer）
type TokenParser interface {
	Parse(raw string) (model.Identity, error)
}

// bearer認証。ヘッダやtokenが無ければ401、あっても検証に失敗したら403。
func AuthJWT(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("UNAUTHORIZED", "authentication required"))
			}

			//署名・期限・roleの検証
			identity, err := parser.Parse(raw)
			if err != nil {
				return c.JSON(http.StatusForbidden, errorJSON("FORBIDDEN", "invalid or expired token"))
			}

			c.Set(CtxIdentityKey, identity)
			return next(c)
		}
	}
}

// "Bearer <token>" からtokenを抜く
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", false
	}
	return tok, true
}

// AuthJWTを通ったリクエストの本人情報
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(CtxIdentityKey).(model.Identity)
	if !ok || id.UserID <= 0 {
		return model.Identity{}, false
	}
	return id, true
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func errorJSON(code, msg string) errorResponse {
	return errorResponse{Error: code, Message: msg}
}
