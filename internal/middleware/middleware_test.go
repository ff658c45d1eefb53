package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grachmannico95/rex-docs-be/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())

	var traceID, userID string
	e.GET("/ping", func(c echo.Context) error {
		traceID = logger.GetTraceID(c.Request().Context())
		userID = logger.GetUserID(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping?user_id=u1", nil)
	req.Header.Set(HeaderTraceID, "trace-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "trace-1", traceID)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "trace-1", rec.Header().Get(HeaderTraceID))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, rec.Header().Get(HeaderTraceID), 36)
	assert.Empty(t, userID)
}

func TestLogging_HandlesErrorOnce(t *testing.T) {
	e := echo.New()
	e.Use(Logging(logger.NewNop()))
	e.GET("/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "nope")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
