package handler

import (
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/infra/logger"
	"storefront/internal/infra/metrics"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthHandler struct {
	uc     *usecase.AuthUsecase
	cookie CookieConfig
}

// DI
func NewAuthHandler(uc *usecase.AuthUsecase, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{uc: uc, cookie: cookie}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login/refresh-tokenのレスポンス（フロントの形に合わせる）
type SessionResponse struct {
	ID              int64       `json:"id"`
	Email           string      `json:"email"`
	Role            model.Role  `json:"role"`
	Nickname        string      `json:"nickname"`
	PreferenceTheme model.Theme `json:"preference_theme"`
	AccessToken     string      `json:"accessToken"`
}

func (h *AuthHandler) RegisterRoutes(api *echo.Group, g Guards) {
	api.POST("/register", h.register)
	if g.LoginLimit != nil {
		api.POST("/login", h.login, g.LoginLimit)
	} else {
		api.POST("/login", h.login)
	}
	api.POST("/refresh-token", h.refresh)
	api.POST("/logout", h.logout)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	_, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: "user created"})
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Login(c.Request().Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		metrics.ObserveSession("login", usecase.KindOf(err).Status())
		return writeError(c, err)
	}
	metrics.ObserveSession("login", http.StatusOK)

	c.SetCookie(h.cookie.refreshCookie(out.RefreshToken, out.RefreshTokenExpiresAt))
	return c.JSON(http.StatusOK, toSessionResponse(out))
}

// cookieのrefresh tokenを交換する。失敗時は常に401。
func (h *AuthHandler) refresh(c echo.Context) error {
	presented := ""
	if ck, err := c.Cookie(refreshCookieName); err == nil {
		presented = ck.Value
	}

	out, err := h.uc.Rotate(c.Request().Context(), presented, c.Request().UserAgent())
	if err != nil {
		metrics.ObserveSession("rotate", usecase.KindOf(err).Status())
		return writeError(c, err)
	}
	metrics.ObserveSession("rotate", http.StatusOK)

	c.SetCookie(h.cookie.refreshCookie(out.RefreshToken, out.RefreshTokenExpiresAt))
	return c.JSON(http.StatusOK, toSessionResponse(out))
}

// 失効に失敗してもcookieは消して200を返す
func (h *AuthHandler) logout(c echo.Context) error {
	status := http.StatusOK
	if ck, err := c.Cookie(refreshCookieName); err == nil {
		if err := h.uc.Logout(c.Request().Context(), ck.Value); err != nil {
			status = usecase.KindOf(err).Status()
			logger.FromContext(c.Request().Context()).Warn("logout_revoke_failed", zap.Error(err))
		}
	}
	metrics.ObserveSession("logout", status)

	c.SetCookie(h.cookie.clearedRefreshCookie())
	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func toSessionResponse(out usecase.SessionOutput) SessionResponse {
	theme := out.Theme
	if theme == "" {
		theme = model.ThemeLight
	}
	return SessionResponse{
		ID:              out.Identity.UserID,
		Email:           out.Identity.Email,
		Role:            out.Identity.Role,
		Nickname:        out.Identity.Nickname,
		PreferenceTheme: theme,
		AccessToken:     out.AccessToken,
	}
}
