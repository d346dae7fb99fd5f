// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors: a required indicator input is missing or too short.
	// These degrade the indicator to "unavailable", never abort an evaluation.
	ErrDataUnavailable  = &Error{Code: "DATA_UNAVAILABLE", Message: "required data unavailable"}
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for indicator"}
	ErrParseFailure     = &Error{Code: "PARSE_FAILURE", Message: "malformed field value"}

	// Provider errors: isolated per ticker in batch operations.
	ErrProviderFailed = &Error{Code: "PROVIDER_FAILED", Message: "data provider failed"}
	ErrRateLimited    = &Error{Code: "RATE_LIMITED", Message: "upstream rate limit hit"}
	ErrNoData         = &Error{Code: "NO_DATA", Message: "no data available"}

	// Recommendation source errors. Quota is distinct so callers can tell
	// "no opinion" from "model refused".
	ErrRecommendFailed = &Error{Code: "RECOMMEND_FAILED", Message: "recommendation request failed"}
	ErrRecommendQuota  = &Error{Code: "RECOMMEND_QUOTA", Message: "recommendation source rate limited"}
	ErrNoPercentage    = &Error{Code: "NO_PERCENTAGE", Message: "no percentage found in text"}

	// Config errors: the only class fatal to a run.
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
