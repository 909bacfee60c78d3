package dto

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/platform/logging"
)

const headerRequestID = "X-Request-ID"

// TraceID returns the id an error envelope reports: the active span's trace
// id, else the request id.
func TraceID(c *gin.Context) string {
	if c.Request == nil {
		return ""
	}

	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	if id := c.Writer.Header().Get(headerRequestID); id != "" {
		return id
	}

	return c.GetHeader(headerRequestID)
}

// MapError maps a domain error to an HTTP status and error envelope.
// Unknown errors become a generic 500 so internals never leak.
func MapError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeTimeout, "request timed out")

	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())

	case domain.IsConflict(err):
		return http.StatusConflict, NewErrorResponse(ErrorCodeConflict, err.Error())

	case domain.IsValidation(err):
		return http.StatusBadRequest, NewErrorResponseWithDetails(ErrorCodeValidation, err.Error(), fieldDetails(err))

	case domain.IsForbidden(err):
		return http.StatusForbidden, NewErrorResponse(ErrorCodeForbidden, err.Error())

	case domain.IsUnavailable(err):
		message := "a dependency is temporarily unavailable"

		var unavailable *domain.UnavailableError
		if errors.As(err, &unavailable) {
			message = unavailable.Service + " is temporarily unavailable"
		}

		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, message)

	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, "an internal error occurred")
	}
}

// fieldDetails extracts per-field messages from a validation error.
func fieldDetails(err error) map[string]string {
	var fields domain.FieldErrors
	if errors.As(err, &fields) {
		details := make(map[string]string, len(fields))
		for field, msg := range fields {
			details[field] = msg
		}

		return details
	}

	var single *domain.ValidationError
	if errors.As(err, &single) && single.Field != "" {
		return map[string]string{single.Field: single.Message}
	}

	return nil
}

// HandleError writes the error envelope for err. Internal errors are logged
// with their full cause.
func HandleError(c *gin.Context, err error) {
	status, resp := MapError(err)
	if resp == nil {
		return
	}

	resp.TraceID = TraceID(c)

	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("internal error",
			"error", err.Error(),
			"path", c.FullPath(),
		)
	}

	c.JSON(status, resp)
}

// BadRequest writes a BAD_REQUEST envelope for malformed input.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, NewErrorResponse(ErrorCodeBadRequest, message).WithTraceID(TraceID(c)))
}

// HandleBindError writes the envelope for a failed BindAndValidate or
// BindQueryAndValidate call.
func HandleBindError(c *gin.Context, err error) {
	if IsValidationError(err) {
		c.JSON(http.StatusBadRequest, NewErrorResponseWithDetails(
			ErrorCodeValidation,
			"request validation failed",
			ValidationErrors(err),
		).WithTraceID(TraceID(c)))

		return
	}

	BadRequest(c, err.Error())
}
