package apierror

import (
	"encoding/json"
	"net/http"
)

// Error represents a structured API error response.
type Error struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"-"`
	Message    string       `json:"error"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// WithDetails adds field-level error details.
func (e *Error) WithDetails(details ...FieldError) *Error {
	e.Details = details
	return e
}

// ToJSON converts the error to JSON bytes. The body is always {"error": message},
// with field details attached for validation failures.
func (e *Error) ToJSON() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte(`{"error":"internal server error"}`)
	}
	return data
}

func newError(status int, code, message, fallback string) *Error {
	if message == "" {
		message = fallback
	}
	return &Error{StatusCode: status, Code: code, Message: message}
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *Error {
	return newError(http.StatusBadRequest, "BAD_REQUEST", message, "Bad request")
}

// ValidationError creates a 400 error with validation details.
func ValidationError(message string, details ...FieldError) *Error {
	return newError(http.StatusBadRequest, "VALIDATION_ERROR", message, "Validation failed").WithDetails(details...)
}

// Unauthorized creates a 401 error for a missing or unknown API key.
func Unauthorized(message string) *Error {
	return newError(http.StatusUnauthorized, "UNAUTHORIZED", message, "Unauthorized")
}

// NotFound creates a 404 error. Handlers name the missing record kind.
func NotFound(message string) *Error {
	return newError(http.StatusNotFound, "NOT_FOUND", message, "Resource not found")
}

// RequestTooLarge creates a 413 error for oversized bodies and uploads.
func RequestTooLarge(message string) *Error {
	return newError(http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", message, "Request body too large")
}

// InternalError creates a 500 error. The message is shown to clients, so it
// must never carry driver or SQL detail.
func InternalError(message string) *Error {
	return newError(http.StatusInternalServerError, "INTERNAL_ERROR", message, "An unexpected error occurred")
}

// BadGateway creates a 502 error for failures of the detection workflow.
func BadGateway(message string) *Error {
	return newError(http.StatusBadGateway, "BAD_GATEWAY", message, "Upstream service failed")
}

// ServiceUnavailable creates a 503 error for a dependency that is not
// configured or did not answer in time.
func ServiceUnavailable(message string) *Error {
	return newError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message, "Service temporarily unavailable")
}
