package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "session_id"

	sessionKey    = "session_id"
	maxSessionLen = 64
	sessionMaxAge = 30 * 24 * time.Hour
)

// Session attaches a shopper session id to the request. The id comes from the
// X-Session-ID header or the session_id cookie; a new one is issued otherwise
// and echoed back in both.
func Session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(SessionHeader))
			if id == "" {
				if cookie, err := c.Cookie(SessionCookie); err == nil {
					id = strings.TrimSpace(cookie.Value)
				}
			}
			if id == "" || len(id) > maxSessionLen {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     SessionCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(sessionMaxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(sessionKey, id)
			c.Response().Header().Set(SessionHeader, id)
			return next(c)
		}
	}
}

// SessionID returns the id set by Session, or "" outside it
func SessionID(c echo.Context) string {
	id, _ := c.Get(sessionKey).(string)
	return id
}
