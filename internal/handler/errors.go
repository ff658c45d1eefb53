package handler

import (
	"errors"
	"net/http"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		archiveErr     *domain.ArchiveError
		schemaErr      *domain.SchemaError
		persistenceErr *domain.PersistenceError
	)
	switch {
	case errors.As(err, &archiveErr), errors.As(err, &schemaErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRecordsNotAttached), errors.Is(err, domain.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound),
		errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.As(err, &persistenceErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(status int, err error) map[string]interface{} {
	body := map[string]interface{}{
		"error": err.Error(),
	}
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		body["error"] = http.StatusText(status)
	}
	var schemaErr *domain.SchemaError
	if errors.As(err, &schemaErr) {
		body["missing_columns"] = schemaErr.Missing
	}
	return body
}
