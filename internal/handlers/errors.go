package handlers

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/sjperalta/timecard-api/internal/services"
)

// respondError maps service errors onto HTTP responses. Unexpected errors are
// reported to Sentry and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	body := gin.H{}

	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		status, code = http.StatusUnprocessableEntity, "validation_error"
		if validation.Field != "" {
			body["field"] = validation.Field
		}
	case errors.Is(err, services.ErrValidation):
		status, code = http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrConcurrentModification):
		status, code = http.StatusConflict, "concurrent_modification"
	case errors.Is(err, services.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, services.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	}

	body["error"] = err.Error()
	body["code"] = code
	body["retryable"] = services.IsRetryable(err)

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		} else {
			sentry.CaptureException(err)
		}
		body["error"] = "Error interno del servidor"
	}

	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": "bad_request", "retryable": false})
}
