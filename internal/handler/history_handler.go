package handler

import (
	"errors"
	"net/http"

	"github.com/grachmannico95/rex-docs-be/internal/eventbus"
	"github.com/grachmannico95/rex-docs-be/internal/service"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
	"github.com/labstack/echo/v4"
)

type HistoryHandler struct {
	service service.HistoryService
	logger  *logger.Logger
}

func NewHistoryHandler(service service.HistoryService, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  log,
	}
}

func (h *HistoryHandler) Sync(c echo.Context) error {
	ctx := c.Request().Context()

	eventID, err := h.service.RequestSync(ctx, c.QueryParam("user_id"), "api")
	if errors.Is(err, eventbus.ErrEventDropped) {
		h.logger.Warn(ctx, "History sync not queued, event bus is full")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error":  "history sync queue is full, retry later",
			"status": "dropped",
		})
	}
	if err != nil {
		h.logger.Error(ctx, "Failed to request history sync",
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to queue history sync",
		})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"event_id": eventID,
		"status":   "queued",
	})
}
