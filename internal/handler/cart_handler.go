package handler

import (
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

// フロントが外部カタログから取った商品をそのまま送ってくる
type cartProduct struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Thumbnail string          `json:"thumbnail"`
}

type AddCartRequest struct {
	Product  cartProduct `json:"product"`
	Quantity int64       `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

type cartItemResponse struct {
	Message string         `json:"message"`
	Item    model.CartItem `json:"item"`
}

type clearCartResponse struct {
	Message string `json:"message"`
	Removed int64  `json:"removed"`
}

// /cart, /cart/:id を登録
func (h *CartHandler) RegisterRoutes(api *echo.Group, g Guards) {
	cart := api.Group("/cart", g.Auth)
	cart.GET("", h.getCart)
	cart.POST("", h.addToCart)
	cart.DELETE("", h.clearCart)
	cart.PUT("/:id", h.updateItem)
	cart.DELETE("/:id", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	id, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.List(c.Request().Context(), id.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	id, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	item, err := h.uc.Add(c.Request().Context(), id.UserID, usecase.AddCartItemInput{
		Product: usecase.ProductSnapshot{
			ProductID: req.Product.ID,
			Title:     req.Product.Title,
			Price:     req.Product.Price,
			Thumbnail: req.Product.Thumbnail,
		},
		Quantity: req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cartItemResponse{Message: "added to cart", Item: item})
}

func (h *CartHandler) updateItem(c echo.Context) error {
	id, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	item, err := h.uc.UpdateQuantity(c.Request().Context(), id.UserID, itemID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cartItemResponse{Message: "quantity updated", Item: item})
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	id, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.Remove(c.Request().Context(), id.UserID, itemID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "item removed"})
}

func (h *CartHandler) clearCart(c echo.Context) error {
	id, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	n, err := h.uc.Clear(c.Request().Context(), id.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, clearCartResponse{Message: "cart cleared", Removed: n})
}
