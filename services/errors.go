package services

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeUpstream     ErrorType = "upstream"
	ErrorTypeInternal     ErrorType = "internal"
)

// retryAfterDetail is the Details key carrying a retry hint
const retryAfterDetail = "retry_after"

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Validation errors: rejected before dispatch, never retried
	ErrInvalidRequest = NewDomainError(ErrorTypeValidation, "invalid request", nil)
	ErrInvalidModel   = NewDomainError(ErrorTypeValidation, "invalid model specified", nil)

	// Authentication errors: every rejection cause maps to this single
	// error so callers cannot distinguish which check failed
	ErrInvalidAPIKey = NewDomainError(ErrorTypeUnauthorized, "invalid API key", nil)

	// Rate limit errors: local quota or relayed upstream 429
	ErrRateLimitExceeded = NewDomainError(ErrorTypeRateLimit, "rate limit exceeded", nil)

	// Upstream transport errors: retried internally, surfaced only after
	// the retry budget is exhausted
	ErrUpstreamTimeout = NewDomainError(ErrorTypeTimeout, "upstream provider timeout", nil)
	ErrNetworkFailure  = NewDomainError(ErrorTypeNetwork, "upstream network failure", nil)

	// Upstream API errors: non-2xx non-429 response, surfaced immediately
	ErrUpstreamAPI = NewDomainError(ErrorTypeUpstream, "upstream provider error", nil)

	// Internal errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal gateway error", nil)
)

// NewValidationError wraps a structural validation failure
func NewValidationError(message string, err error) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, err)
}

// NewRateLimitError creates a rate-limit failure carrying a retry hint
func NewRateLimitError(message string, retryAfter time.Duration) *DomainError {
	return NewDomainError(ErrorTypeRateLimit, message, nil).
		WithDetail(retryAfterDetail, retryAfter)
}

// NewTimeoutError wraps an upstream timeout
func NewTimeoutError(message string, err error) *DomainError {
	return NewDomainError(ErrorTypeTimeout, message, err)
}

// NewNetworkError wraps a transport-level fault
func NewNetworkError(message string, err error) *DomainError {
	return NewDomainError(ErrorTypeNetwork, message, err)
}

// NewUpstreamError wraps a non-retryable upstream API failure
func NewUpstreamError(message string, err error) *DomainError {
	return NewDomainError(ErrorTypeUpstream, message, err)
}

// WrapInternal wraps an unexpected fault preserving the original message
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// RetryAfter extracts the retry hint from a rate-limit error. The second
// return value reports whether a hint was present.
func RetryAfter(err error) (time.Duration, bool) {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return 0, false
	}
	hint, ok := domainErr.Details[retryAfterDetail].(time.Duration)
	return hint, ok
}

// Error type checking helper functions

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	return GetErrorType(err) == ErrorTypeRateLimit
}

// IsTimeoutError checks if an error is an upstream timeout error
func IsTimeoutError(err error) bool {
	return GetErrorType(err) == ErrorTypeTimeout
}

// IsNetworkError checks if an error is a transport-level error
func IsNetworkError(err error) bool {
	return GetErrorType(err) == ErrorTypeNetwork
}

// IsUpstreamError checks if an error is an upstream API error
func IsUpstreamError(err error) bool {
	return GetErrorType(err) == ErrorTypeUpstream
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}
