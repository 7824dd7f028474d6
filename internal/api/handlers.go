package api

import (
	"net/http"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/query"
	"github.com/example/storefront/internal/readmodel"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handlers serves the shopper-facing routes
type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	logger       *zap.Logger
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		logger:       logger.Named("api"),
	}
}

func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Product Handlers

func (h *Handlers) GetProducts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.queryHandler.ListProducts(c.QueryParam("q")))
}

func (h *Handlers) GetProduct(c echo.Context) error {
	product, ok := h.queryHandler.GetProduct(c.Param("id"))
	if !ok {
		return respondJSONError(c, "product not found", http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, product)
}

// Cart Handlers

func cartID(c echo.Context) string {
	return cart.GetCartID(middleware.SessionID(c))
}

func (h *Handlers) GetCart(c echo.Context) error {
	return h.respondCart(c, cartID(c))
}

func (h *Handlers) AddToCart(c echo.Context) error {
	var cmd command.AddToCart
	if err := c.Bind(&cmd); err != nil {
		return respondJSONError(c, "invalid request body", http.StatusBadRequest)
	}
	cmd.CartID = cartID(c)

	if _, err := h.cmdHandler.AddToCart(c.Request().Context(), cmd); err != nil {
		return respondError(c, h.logger, err)
	}
	return h.respondCart(c, cmd.CartID)
}

func (h *Handlers) UpdateCartItem(c echo.Context) error {
	var cmd command.UpdateCartItem
	if err := c.Bind(&cmd); err != nil {
		return respondJSONError(c, "invalid request body", http.StatusBadRequest)
	}
	cmd.CartID = cartID(c)
	cmd.ProductID = c.Param("productId")

	if _, err := h.cmdHandler.UpdateCartItem(c.Request().Context(), cmd); err != nil {
		return respondError(c, h.logger, err)
	}
	return h.respondCart(c, cmd.CartID)
}

func (h *Handlers) RemoveFromCart(c echo.Context) error {
	cmd := command.RemoveFromCart{
		CartID:    cartID(c),
		ProductID: c.Param("productId"),
	}
	if _, err := h.cmdHandler.RemoveFromCart(c.Request().Context(), cmd); err != nil {
		return respondError(c, h.logger, err)
	}
	return h.respondCart(c, cmd.CartID)
}

func (h *Handlers) ClearCart(c echo.Context) error {
	cmd := command.ClearCart{CartID: cartID(c)}
	if _, err := h.cmdHandler.ClearCart(c.Request().Context(), cmd); err != nil {
		return respondError(c, h.logger, err)
	}
	return h.respondCart(c, cmd.CartID)
}

func (h *Handlers) respondCart(c echo.Context, id string) error {
	view, err := h.queryHandler.GetCart(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Order Handlers

func (h *Handlers) PlaceOrder(c echo.Context) error {
	var cmd command.PlaceOrder
	if err := c.Bind(&cmd); err != nil {
		return respondJSONError(c, "invalid request body", http.StatusBadRequest)
	}
	cmd.CartID = cartID(c)

	o, err := h.cmdHandler.PlaceOrder(c.Request().Context(), cmd)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, readmodel.FromOrder(o))
}

// GetOrder is the public tracking lookup; anyone holding the id may read it
func (h *Handlers) GetOrder(c echo.Context) error {
	view, ok, err := h.queryHandler.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !ok {
		return respondJSONError(c, "order not found", http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, view)
}
