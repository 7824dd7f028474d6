package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/storefront/internal/auth"
	"github.com/labstack/echo/v4"
)

const claimsKey = "admin_claims"

// ExtractToken reads the bearer token from the Authorization header,
// falling back to the access_token cookie used by the browser dashboard
func ExtractToken(c echo.Context) string {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAdmin rejects requests without a valid admin token
func RequireAdmin(jwtService *auth.JWTService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := ExtractToken(c)
			if tokenString == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}

			claims, err := jwtService.Validate(tokenString)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "token has expired"
				}
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg})
			}
			if claims.Role != auth.RoleAdmin {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// AdminClaims returns the claims stored by RequireAdmin
func AdminClaims(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*auth.Claims)
	return claims, ok
}
