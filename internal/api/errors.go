package api

import (
	"errors"
	"net/http"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/catalog"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var badRequestErrors = []error{
	cart.ErrInvalidQuantity,
	cart.ErrInvalidProduct,
	order.ErrEmptyOrder,
	order.ErrInvalidItem,
	order.ErrIncompleteCustomerInfo,
	order.ErrTotalMismatch,
	order.ErrInvalidStatus,
}

var notFoundErrors = []error{
	catalog.ErrProductNotFound,
	order.ErrOrderNotFound,
}

var conflictErrors = []error{
	order.ErrIllegalTransition,
	store.ErrVersionConflict,
}

func statusFor(err error) int {
	switch {
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, conflictErrors):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError maps domain errors to a status code. Internal errors are
// logged and hidden from the client.
func respondError(c echo.Context, logger *zap.Logger, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err))
		return respondJSONError(c, "internal server error", code)
	}
	return respondJSONError(c, err.Error(), code)
}

func respondJSONError(c echo.Context, message string, code int) error {
	return c.JSON(code, map[string]string{"error": message})
}
