package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/storefront/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequests_RecordsRoutePattern(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := metrics.New()

	e := echo.New()
	e.Use(Requests(m, zap.New(core)))
	e.GET("/products/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})

	for _, path := range []string{"/products/p1", "/products/p2", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	count, err := testutil.GatherAndCount(m.Registry(), "storefront_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per route and status code")

	assert.Equal(t, 2, logs.FilterMessage("request").Len())
	failed := logs.FilterMessage("request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "/boom", failed[0].ContextMap()["route"])
}
