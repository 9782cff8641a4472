package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/clients"
	"github.com/jsamuelsen/quote-gallery/internal/domain"
)

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// ErrorResponse is an Airtable error body. Airtable sends either
// {"error":{"type":"...","message":"..."}} or {"error":"TYPE"}.
type ErrorResponse struct {
	Type    string
	Message string
}

// UnmarshalJSON accepts both error shapes.
func (e *ErrorResponse) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if len(envelope.Error) == 0 {
		return nil
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		e.Type, e.Message = detail.Type, detail.Message
		return nil
	}

	return json.Unmarshal(envelope.Error, &e.Type)
}

// Airtable error types with a specific domain meaning.
const (
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodeInvalidPermissions     = "INVALID_PERMISSIONS_OR_MODEL_NOT_FOUND"
	CodeNotFound               = "NOT_FOUND"
	CodeTableNotFound          = "TABLE_NOT_FOUND"
	CodeViewNotFound           = "VIEW_NAME_NOT_FOUND"
	CodeUnknownField           = "UNKNOWN_FIELD_NAME"
	CodeInvalidOffset          = "LIST_RECORDS_ITERATOR_NOT_AVAILABLE"
	CodeInvalidRequest         = "INVALID_REQUEST_UNKNOWN"
)

// ParseErrorResponse decodes an error body, returning nil when it is empty
// or unrecognisable.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}
	if errResp.Type == "" && errResp.Message == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError maps a failed request to a domain error. Either resp or
// clientErr is set; entity names what was being fetched.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation, entity string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}
	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	var errResp *ErrorResponse
	if resp.Body != nil {
		errResp = ParseErrorResponse(resp.Body)
	}

	if errResp != nil && errResp.Type != "" {
		if err := MapExternalCode(errResp.Type, errResp.Message, serviceName, operation, entity); err != nil {
			return err
		}
	}

	return mapStatusCode(resp.StatusCode, errResp, serviceName, operation, entity)
}

func mapClientError(err error, serviceName, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("circuit breaker open during %s", operation))
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("max retries exceeded during %s", operation))
	default:
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("%s failed: %v", operation, err))
	}
}

func mapStatusCode(status int, errResp *ErrorResponse, serviceName, operation, entity string) error {
	message := defaultMessageForStatus(status, operation)
	if errResp != nil && errResp.Message != "" {
		message = errResp.Message
	}

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(serviceName, entity)
	case status == http.StatusUnauthorized:
		return domain.NewForbiddenError(operation, "authentication required")
	case status == http.StatusForbidden:
		return domain.NewForbiddenError(operation, message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return domain.NewValidationError("", message)
	default:
		return domain.NewUnavailableError(serviceName, message)
	}
}

func defaultMessageForStatus(status int, operation string) string {
	switch status {
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "invalid request"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	default:
		return fmt.Sprintf("%s failed with status %d", operation, status)
	}
}

// MapExternalCode maps an Airtable error type to a domain error, or returns
// nil when the type has no specific meaning and the status should decide.
func MapExternalCode(code, message, serviceName, operation, entity string) error {
	switch code {
	case CodeNotFound, CodeTableNotFound:
		return domain.NewNotFoundError(serviceName, entity)
	case CodeViewNotFound:
		return domain.NewValidationError("view", orDefault(message, "view not found"))
	case CodeUnknownField:
		return domain.NewValidationError("fields", orDefault(message, "unknown field"))
	case CodeInvalidRequest:
		return domain.NewValidationError("request", orDefault(message, "invalid request"))
	case CodeInvalidOffset:
		return domain.NewUnavailableError(serviceName, "pagination offset expired")
	case CodeAuthenticationRequired:
		return domain.NewForbiddenError(operation, "authentication required")
	case CodeInvalidPermissions:
		return domain.NewForbiddenError(operation, orDefault(message, "invalid permissions or model not found"))
	default:
		return nil
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}

	return s
}
