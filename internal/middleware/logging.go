package middleware

import (
	"net/http"
	"time"

	"github.com/grachmannico95/rex-docs-be/pkg/logger"
	"github.com/labstack/echo/v4"
)

// Logging writes one line per request; the level follows the response status.
func Logging(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			fields := []interface{}{
				"method", req.Method,
				"route", c.Path(),
				"path", req.URL.Path,
				"status", res.Status,
				"bytes_out", res.Size,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", c.RealIP(),
			}

			switch {
			case res.Status >= http.StatusInternalServerError:
				log.Error(req.Context(), "HTTP request", fields...)
			case res.Status >= http.StatusBadRequest:
				log.Warn(req.Context(), "HTTP request", fields...)
			default:
				log.Info(req.Context(), "HTTP request", fields...)
			}

			return nil
		}
	}
}
