package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ProductOfMonthHandler struct {
	uc *usecase.ProductOfMonthUsecase
}

func NewProductOfMonthHandler(uc *usecase.ProductOfMonthUsecase) *ProductOfMonthHandler {
	return &ProductOfMonthHandler{uc: uc}
}

type setProductOfMonthRequest struct {
	ProductID int64 `json:"productId"`
}

type setProductOfMonthResponse struct {
	Message   string `json:"message"`
	ProductID *int64 `json:"productId"`
}

func (h *ProductOfMonthHandler) RegisterRoutes(api *echo.Group, g Guards) {
	api.GET("/product-of-month", h.get)
	api.PUT("/product-of-month", h.set, g.Auth, g.Admin)
}

func (h *ProductOfMonthHandler) get(c echo.Context) error {
	out, err := h.uc.Get(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductOfMonthHandler) set(c echo.Context) error {
	id, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	var req setProductOfMonthRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Set(c.Request().Context(), id.UserID, req.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, setProductOfMonthResponse{Message: "product of the month updated", ProductID: out.ProductID})
}
