package shopsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes carried in the "error" field of every failure response.
const (
	CodeValidation      = "validation_error"
	CodeInvalidJSON     = "invalid_json"
	CodeEmailTaken      = "email_taken"
	CodeInvalidCreds    = "invalid_credentials"
	CodeNoToken         = "no_token"
	CodeInvalidToken    = "invalid_token"
	CodeUserNotFound    = "user_not_found"
	CodeInvalidCode     = "invalid_or_expired_code"
	CodeCodeNotVerified = "code_not_verified"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeUnavailable     = "service_unavailable"
	CodeServerError     = "server_error"
	CodeRateLimited     = "rate_limit_exceeded"
)

// APIError is the error envelope. Handlers write it, the client decodes it.
type APIError struct {
	StatusCode int               `json:"-"`
	Code       string            `json:"error"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

// WriteError writes e as a JSON response with its status code.
func (e *APIError) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// WithDetails returns a copy of e carrying per-field messages.
func (e *APIError) WithDetails(details map[string]string) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

func NewAPIError(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, Code: code, Message: message}
}

var (
	ErrValidation      = NewAPIError(http.StatusBadRequest, CodeValidation, "Validation failed")
	ErrInvalidJSON     = NewAPIError(http.StatusBadRequest, CodeInvalidJSON, "Request body must be valid JSON")
	ErrEmailTaken      = NewAPIError(http.StatusBadRequest, CodeEmailTaken, "Email already in use")
	ErrInvalidCreds    = NewAPIError(http.StatusBadRequest, CodeInvalidCreds, "Invalid credentials")
	ErrNoToken         = NewAPIError(http.StatusUnauthorized, CodeNoToken, "No token")
	ErrInvalidToken    = NewAPIError(http.StatusUnauthorized, CodeInvalidToken, "Invalid or expired token")
	ErrUserNotFound    = NewAPIError(http.StatusNotFound, CodeUserNotFound, "User not found")
	ErrInvalidCode     = NewAPIError(http.StatusBadRequest, CodeInvalidCode, "Invalid or expired code")
	ErrCodeNotVerified = NewAPIError(http.StatusForbidden, CodeCodeNotVerified, "Reset code has not been verified")
	ErrForbidden       = NewAPIError(http.StatusForbidden, CodeForbidden, "Unauthorized")
	ErrUnavailable     = NewAPIError(http.StatusServiceUnavailable, CodeUnavailable, "Service temporarily unavailable")
	ErrServer          = NewAPIError(http.StatusInternalServerError, CodeServerError, "Something went wrong")
)

// NotFound builds a 404 for a named resource, e.g. NotFound("Product").
func NotFound(resource string) *APIError {
	return NewAPIError(http.StatusNotFound, CodeNotFound, resource+" not found")
}

// parseErrorResponse turns a non-2xx response body into an *APIError. Bodies
// that are not the envelope still yield an error carrying the status.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = http.StatusText(resp.StatusCode)
		apiErr.Message = string(body)
	}
	return apiErr
}
