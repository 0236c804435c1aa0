package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ProfileHandler struct {
	uc *usecase.ProfileUsecase
}

func NewProfileHandler(uc *usecase.ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

type changeNicknameRequest struct {
	Nickname string `json:"nickname"`
}

type changeNicknameResponse struct {
	Message  string `json:"message"`
	Nickname string `json:"nickname"`
}

type changeThemeRequest struct {
	Theme string `json:"theme"`
}

type changeThemeResponse struct {
	Message string `json:"message"`
	Theme   string `json:"theme"`
}

func (h *ProfileHandler) RegisterRoutes(api *echo.Group, g Guards) {
	api.GET("/me", h.me, g.Auth)
	api.PUT("/change-nickname", h.changeNickname, g.Auth)
	api.PUT("/change-theme", h.changeTheme, g.Auth)
}

func (h *ProfileHandler) me(c echo.Context) error {
	id, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	user, err := h.uc.Me(c.Request().Context(), id.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *ProfileHandler) changeNickname(c echo.Context) error {
	id, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	var req changeNicknameRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	nickname, err := h.uc.ChangeNickname(c.Request().Context(), id.UserID, req.Nickname)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, changeNicknameResponse{Message: "nickname changed", Nickname: nickname})
}

func (h *ProfileHandler) changeTheme(c echo.Context) error {
	id, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	var req changeThemeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	theme, err := h.uc.ChangeTheme(c.Request().Context(), id.UserID, req.Theme)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, changeThemeResponse{Message: "theme saved", Theme: string(theme)})
}
