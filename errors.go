package aidbox

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for common failure modes.
var (
	ErrNoBaseURL     = errors.New("aidbox: no base URL configured")
	ErrNoCredentials = errors.New("aidbox: no token or credentials configured")
	ErrNotSupported  = errors.New("aidbox: not supported")
)

// APIError represents a general Aidbox API error.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("aidbox: API error %d: %s (request_id=%s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("aidbox: API error %d: %s", e.StatusCode, e.Message)
}

// AuthorizationError indicates a failed credential handshake or a
// forbidden request (403).
type AuthorizationError struct {
	APIError
}

func (e *AuthorizationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("aidbox: authorization failed: %s", e.Message)
	}
	return "aidbox: authorization failed"
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *AuthorizationError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// NotFoundError indicates the requested resource was not found (404), or
// that a by-id search yielded no result.
type NotFoundError struct {
	APIError
	ResourceType string
	ResourceID   string
}

func (e *NotFoundError) Error() string {
	if e.ResourceType != "" && e.ResourceID != "" {
		return fmt.Sprintf("aidbox: %s not found: %s", e.ResourceType, e.ResourceID)
	}
	return fmt.Sprintf("aidbox: resource not found: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *NotFoundError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// OperationOutcomeError indicates any other non-success response. It
// carries the raw response body as diagnostic text.
type OperationOutcomeError struct {
	APIError
	Diagnostics string
}

func (e *OperationOutcomeError) Error() string {
	return fmt.Sprintf("aidbox: operation outcome %d: %s", e.StatusCode, e.Diagnostics)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *OperationOutcomeError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// FieldError indicates a field name that is not part of the resource
// type's schema.
type FieldError struct {
	ResourceType string
	Field        string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("aidbox: invalid field %q for resource %q", e.Field, e.ResourceType)
}

// parseError converts a non-2xx HTTP response into the appropriate error
// type: 404 becomes NotFoundError, 403 AuthorizationError, and everything
// else OperationOutcomeError.
func parseError(statusCode int, body []byte, headers http.Header) error {
	base := APIError{
		StatusCode: statusCode,
		Message:    strings.TrimSpace(string(body)),
		RequestID:  headers.Get("X-Request-ID"),
	}

	switch statusCode {
	case http.StatusForbidden:
		return &AuthorizationError{APIError: base}
	case http.StatusNotFound:
		return &NotFoundError{APIError: base}
	default:
		return &OperationOutcomeError{APIError: base, Diagnostics: base.Message}
	}
}
