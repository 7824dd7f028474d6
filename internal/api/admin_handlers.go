package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/query"
	"github.com/example/storefront/internal/readmodel"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminHandlers serves the order management dashboard
type AdminHandlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	credentials  *auth.AdminCredentials
	jwtService   *auth.JWTService
	logger       *zap.Logger
}

func NewAdminHandlers(
	cmdHandler *command.Handler,
	queryHandler *query.Handler,
	credentials *auth.AdminCredentials,
	jwtService *auth.JWTService,
	logger *zap.Logger,
) *AdminHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		credentials:  credentials,
		jwtService:   jwtService,
		logger:       logger.Named("admin"),
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the access token for API clients; browsers also get a cookie
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *AdminHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return respondJSONError(c, "invalid request body", http.StatusBadRequest)
	}

	if err := h.credentials.Verify(req.Email, req.Password); err != nil {
		if errors.Is(err, auth.ErrLoginDisabled) {
			return respondJSONError(c, err.Error(), http.StatusServiceUnavailable)
		}
		h.logger.Warn("admin login failed", zap.String("email", req.Email))
		return respondJSONError(c, "invalid email or password", http.StatusUnauthorized)
	}

	token, expiresAt, err := h.jwtService.IssueAdminToken(req.Email)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/admin",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.IsTLS(),
		SameSite: http.SameSiteStrictMode,
	})
	h.logger.Info("admin logged in", zap.String("email", req.Email))
	return c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// ListOrders lists projected orders, optionally filtered by ?status=
func (h *AdminHandlers) ListOrders(c echo.Context) error {
	var status order.Status
	if raw := c.QueryParam("status"); raw != "" {
		parsed, err := order.ParseStatus(raw)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		status = parsed
	}

	orders, err := h.queryHandler.ListOrders(c.Request().Context(), status)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *AdminHandlers) Dashboard(c echo.Context) error {
	d, err := h.queryHandler.Dashboard(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *AdminHandlers) AdvanceOrder(c echo.Context) error {
	o, err := h.cmdHandler.AdvanceOrder(c.Request().Context(), command.AdvanceOrder{OrderID: c.Param("id")})
	return h.respondStatusChange(c, o, err)
}

func (h *AdminHandlers) UpdateOrderStatus(c echo.Context) error {
	var cmd command.UpdateOrderStatus
	if err := c.Bind(&cmd); err != nil {
		return respondJSONError(c, "invalid request body", http.StatusBadRequest)
	}
	cmd.OrderID = c.Param("id")

	o, err := h.cmdHandler.UpdateOrderStatus(c.Request().Context(), cmd)
	return h.respondStatusChange(c, o, err)
}

func (h *AdminHandlers) CancelOrder(c echo.Context) error {
	var cmd command.CancelOrder
	if err := c.Bind(&cmd); err != nil {
		return respondJSONError(c, "invalid request body", http.StatusBadRequest)
	}
	cmd.OrderID = c.Param("id")

	o, err := h.cmdHandler.CancelOrder(c.Request().Context(), cmd)
	return h.respondStatusChange(c, o, err)
}

func (h *AdminHandlers) respondStatusChange(c echo.Context, o *order.Order, err error) error {
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if claims, ok := middleware.AdminClaims(c); ok {
		h.logger.Info("order status updated by admin",
			zap.String("order_id", o.ID),
			zap.String("status", string(o.Status)),
			zap.String("admin", claims.Email))
	}
	return c.JSON(http.StatusOK, readmodel.FromOrder(o))
}
