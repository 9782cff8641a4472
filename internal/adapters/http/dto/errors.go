// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
	"github.com/jsamuelsen/quote-gallery/internal/platform/logging"
)

// ErrorResponse is the standard error envelope for all error responses.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	// Code is a machine-readable error code (e.g., "NOT_FOUND", "VALIDATION_ERROR").
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details holds field-level messages for validation errors.
	Details map[string]string `json:"details,omitempty"`
}

// Error codes for machine-readable error identification.
const (
	ErrorCodeNotFound    = "NOT_FOUND"
	ErrorCodeValidation  = "VALIDATION_ERROR"
	ErrorCodeForbidden   = "FORBIDDEN"
	ErrorCodeUnavailable = "SERVICE_UNAVAILABLE"
	ErrorCodeInternal    = "INTERNAL_ERROR"
	ErrorCodeTimeout     = "TIMEOUT"
	ErrorCodeBadRequest  = "BAD_REQUEST"

	// ErrorCodeNotLoaded means no collection has been loaded yet.
	ErrorCodeNotLoaded = "NOT_LOADED"

	// ErrorCodeLoadFailed means fetching the collection from its source failed.
	ErrorCodeLoadFailed = "LOAD_FAILED"
)

// NewErrorResponse creates a new error response with the given code and message.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithDetails creates an error response with additional details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	resp := NewErrorResponse(code, message)
	resp.Error.Details = details

	return resp
}

// WithTraceID adds a trace ID to the error response.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// HTTPStatusFromCode maps error codes to HTTP status codes.
func HTTPStatusFromCode(code string) int {
	switch code {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeValidation, ErrorCodeBadRequest:
		return http.StatusBadRequest
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeUnavailable, ErrorCodeNotLoaded, ErrorCodeLoadFailed:
		return http.StatusServiceUnavailable
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// MapError maps an error to an error code and message. Unknown errors get a
// generic message so internals do not leak.
func MapError(err error) (code, message string) {
	switch {
	case errors.Is(err, domain.ErrNotLoaded):
		return ErrorCodeNotLoaded, "the quote collection has not been loaded yet"
	case domain.IsLoadError(err):
		return ErrorCodeLoadFailed, err.Error()
	case domain.IsNotFound(err):
		return ErrorCodeNotFound, err.Error()
	case domain.IsValidation(err), errors.Is(err, ErrValidation), errors.Is(err, ErrBinding):
		return ErrorCodeValidation, err.Error()
	case domain.IsForbidden(err):
		return ErrorCodeForbidden, err.Error()
	case domain.IsUnavailable(err):
		return ErrorCodeUnavailable, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeTimeout, "request timeout exceeded"
	default:
		return ErrorCodeInternal, "an internal error occurred"
	}
}

// NewErrorResponseFromError builds the envelope for err, with field details
// for validation failures.
func NewErrorResponseFromError(err error) (int, *ErrorResponse) {
	code, message := MapError(err)
	resp := NewErrorResponse(code, message)

	if code == ErrorCodeValidation {
		var fieldErr *domain.ValidationError
		switch {
		case errors.As(err, &fieldErr) && fieldErr.Field != "":
			resp.Error.Details = map[string]string{fieldErr.Field: fieldErr.Message}
		case IsValidationError(err):
			resp.Error.Details = ValidationErrors(err)
		}
	}

	return HTTPStatusFromCode(code), resp
}

// GetTraceID returns the OpenTelemetry trace ID of the request, if any.
func GetTraceID(c *gin.Context) string {
	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return ""
}

// HandleError writes the error envelope for err. Internal errors are logged
// with the request's logger.
func HandleError(c *gin.Context, err error) {
	status, resp := NewErrorResponseFromError(err)
	resp.TraceID = GetTraceID(c)

	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("internal error",
			"error", err.Error(),
			"trace_id", resp.TraceID,
		)
	}

	c.JSON(status, resp)
}

// Abort stops the handler chain with an error envelope. Headers already
// written are left alone.
func Abort(c *gin.Context, code, message string) {
	if c.Writer.Written() {
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(HTTPStatusFromCode(code), NewErrorResponse(code, message).WithTraceID(GetTraceID(c)))
}
