package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrBadRequest       = errors.New("bad request")
	ErrInternal         = errors.New("internal error")
	ErrQuotaExhausted   = errors.New("quota exhausted")
	ErrConfiguration    = errors.New("configuration error")
	ErrProvider         = errors.New("provider error")
	ErrSignatureInvalid = errors.New("invalid signature")
	ErrEnrichmentFailed = errors.New("enrichment failed")
)

// AppError represents an application error with HTTP status and error code.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrorResponse represents the JSON error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Common error constructors.

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// BadRequest creates a bad request error.
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrBadRequest,
	}
}

// QuotaExhausted creates a quota exhausted error.
func QuotaExhausted(message string) *AppError {
	if message == "" {
		message = "No spins remaining"
	}
	return &AppError{
		Code:       "QUOTA_EXHAUSTED",
		Message:    message,
		StatusCode: http.StatusForbidden,
		Err:        ErrQuotaExhausted,
	}
}

// Configuration creates a configuration error. These indicate a missing
// credential or identifier that must never be silently defaulted.
func Configuration(message string) *AppError {
	return &AppError{
		Code:       "CONFIGURATION_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        ErrConfiguration,
	}
}

// Provider creates an error for an external collaborator that was reachable
// but rejected the call.
func Provider(message string, err error) *AppError {
	return &AppError{
		Code:       "PROVIDER_ERROR",
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Err:        fmt.Errorf("%w: %w", ErrProvider, err),
	}
}

// SignatureInvalid creates a webhook authenticity error.
func SignatureInvalid(err error) *AppError {
	return &AppError{
		Code:       "SIGNATURE_INVALID",
		Message:    "invalid signature",
		StatusCode: http.StatusBadRequest,
		Err:        fmt.Errorf("%w: %w", ErrSignatureInvalid, err),
	}
}

// EnrichmentFailed creates an error for an LLM call that produced no usable
// structured output.
func EnrichmentFailed(err error) *AppError {
	return &AppError{
		Code:       "ENRICHMENT_FAILED",
		Message:    "failed to look up restaurant details",
		StatusCode: http.StatusBadGateway,
		Err:        fmt.Errorf("%w: %w", ErrEnrichmentFailed, err),
	}
}

// Internal creates an internal server error.
func Internal(message string, err error) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
