package handler

import (
	"net/http"

	"storefront/internal/infra/metrics"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type checkoutResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group, g Guards) {
	api.POST("/orders", h.checkout, g.Auth)
	api.GET("/my-orders", h.myOrders, g.Auth)
}

// カートを注文にする（bodyは使わない。合計もサーバーで計算）
func (h *OrderHandler) checkout(c echo.Context) error {
	id, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Checkout(c.Request().Context(), id.UserID)
	if err != nil {
		metrics.ObserveCheckout(usecase.KindOf(err).Status())
		return writeError(c, err)
	}
	metrics.ObserveCheckout(http.StatusCreated)

	return c.JSON(http.StatusCreated, checkoutResponse{Message: "order placed", OrderID: out.OrderID})
}

func (h *OrderHandler) myOrders(c echo.Context) error {
	id, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), id.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
