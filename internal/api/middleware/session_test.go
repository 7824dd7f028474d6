package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionEcho() *echo.Echo {
	e := echo.New()
	e.Use(Session())
	e.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, SessionID(c))
	})
	return e
}

func TestSession_FromHeader(t *testing.T) {
	e := newSessionEcho()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(SessionHeader, "shopper-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "shopper-1", rec.Body.String())
	assert.Equal(t, "shopper-1", rec.Header().Get(SessionHeader))
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestSession_FromCookie(t *testing.T) {
	e := newSessionEcho()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "shopper-2"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "shopper-2", rec.Body.String())
}

func TestSession_IssuesNewID(t *testing.T) {
	e := newSessionEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	id := rec.Body.String()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.Header().Get(SessionHeader))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Set-Cookie"), SessionCookie+"="+id))
}

func TestSession_RejectsOversizedID(t *testing.T) {
	e := newSessionEcho()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(SessionHeader, strings.Repeat("x", maxSessionLen+1))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	_, err := uuid.Parse(rec.Body.String())
	assert.NoError(t, err)
}
