package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/internal/service"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
	"github.com/labstack/echo/v4"
)

type RexHandler struct {
	service service.SubmissionService
	logger  *logger.Logger
}

func NewRexHandler(service service.SubmissionService, log *logger.Logger) *RexHandler {
	return &RexHandler{
		service: service,
		logger:  log,
	}
}

func (h *RexHandler) fail(c echo.Context, msg string, err error) error {
	ctx := c.Request().Context()
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(ctx, msg, "error", err)
	} else {
		h.logger.Warn(ctx, msg, "status", status, "error", err)
	}
	return c.JSON(status, errorBody(status, err))
}

func (h *RexHandler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.FormValue("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "user_id is required",
		})
	}

	file, err := c.FormFile("archive")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "archive is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error(ctx, "Failed to open archive",
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to open archive",
		})
	}
	defer src.Close()

	result, err := h.service.CreateSession(ctx, userID, file.Filename, src, file.Size)
	if err != nil {
		return h.fail(c, "Failed to create session", err)
	}

	return c.JSON(http.StatusCreated, result)
}

func (h *RexHandler) AttachRecords(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("id")

	file, err := c.FormFile("records")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "records is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error(ctx, "Failed to open records file",
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to open records file",
		})
	}
	defer src.Close()

	result, err := h.service.AttachRecords(ctx, sessionID, file.Filename, src)
	if err != nil {
		return h.fail(c, "Failed to attach records", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"rows":       result.Records,
		"errors":     result.Errors,
		"total_rows": result.TotalRows,
	})
}

func (h *RexHandler) Match(c echo.Context) error {
	sessionID := c.Param("id")

	result, err := h.service.Match(c.Request().Context(), sessionID)
	if err != nil {
		return h.fail(c, "Failed to match documents", err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *RexHandler) Submit(c echo.Context) error {
	sessionID := c.Param("id")

	outcome, err := h.service.Submit(c.Request().Context(), sessionID)
	if errors.Is(err, domain.ErrNoEligibleRows) {
		return c.JSON(http.StatusOK, outcome)
	}
	if err != nil {
		return h.fail(c, "Failed to submit", err)
	}

	return c.JSON(http.StatusCreated, outcome)
}

func (h *RexHandler) DiscardSession(c echo.Context) error {
	if err := h.service.DiscardSession(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, "Failed to discard session", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RexHandler) ListSubmissions(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "user_id is required",
		})
	}

	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 1 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	subs, total, err := h.service.ListSubmissions(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return h.fail(c, "Failed to list submissions", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":  subs,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func (h *RexHandler) GetSubmission(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "user_id is required",
		})
	}

	sub, err := h.service.GetSubmission(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return h.fail(c, "Failed to get submission", err)
	}

	return c.JSON(http.StatusOK, sub)
}

func (h *RexHandler) DeleteSubmission(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "user_id is required",
		})
	}

	if err := h.service.DeleteSubmission(c.Request().Context(), c.Param("id"), userID); err != nil {
		return h.fail(c, "Failed to delete submission", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RexHandler) DownloadDocument(c echo.Context) error {
	doc, rc, err := h.service.OpenDocument(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "Failed to open document", err)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return c.Stream(http.StatusOK, "application/pdf", rc)
}
