package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// SessionCounter reports how many upload sessions are open.
type SessionCounter interface {
	Len() int
}

type HealthHandler struct {
	sessions SessionCounter
	started  time.Time
}

func NewHealthHandler(sessions SessionCounter) *HealthHandler {
	return &HealthHandler{
		sessions: sessions,
		started:  time.Now(),
	}
}

func (h *HealthHandler) Check(c echo.Context) error {
	body := map[string]interface{}{
		"status":         "ok",
		"timestamp":      time.Now().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}
	if h.sessions != nil {
		body["open_sessions"] = h.sessions.Len()
	}
	return c.JSON(http.StatusOK, body)
}
