// Package apierror renders JSON error responses.
package apierror

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// ValidationError names the field a request failed on
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func InvalidRequest(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

func Validation(fields []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", fields)
}

func BuildInProgress() *APIError {
	return New(http.StatusConflict, "BUILD_IN_PROGRESS", "An index build is already running")
}

func NotFound(message string) *APIError {
	return New(http.StatusNotFound, "NOT_FOUND", message)
}

func RateLimited() *APIError {
	return New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
}

func Internal(err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error", err.Error())
}

func Unavailable(details any) *APIError {
	return NewWithDetails(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable", details)
}

// Write renders err, or a 500 when it is not an *APIError.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, ok := err.(*APIError)
	if !ok {
		apiErr = Internal(err)
	}
	_ = render.Render(w, r, apiErr)
}
