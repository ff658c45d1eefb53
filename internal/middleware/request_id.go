package middleware

import (
	"github.com/google/uuid"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
	"github.com/labstack/echo/v4"
)

const HeaderTraceID = "X-Trace-ID"

// RequestID tags the request context with a trace ID, and with the user ID
// when it is passed as a query parameter.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := c.Request().Header.Get(HeaderTraceID)
			if traceID == "" {
				traceID = uuid.New().String()
			}

			ctx := logger.WithTraceID(c.Request().Context(), traceID)
			if userID := c.QueryParam("user_id"); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			c.Response().Header().Set(HeaderTraceID, traceID)

			return next(c)
		}
	}
}
