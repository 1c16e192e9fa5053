package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeReadability  = "CONTENT_EXTRACTION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNoFields     = "NO_FIELDS"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// Session and store error codes.
	ErrCodeSessionNotFound    = "SESSION_NOT_FOUND"
	ErrCodeBusy               = "RUN_IN_PROGRESS"
	ErrCodeNoResults          = "NO_RESULTS"
	ErrCodeRecordNotFound     = "RECORD_NOT_FOUND"
	ErrCodeStoreNotConfigured = "STORE_NOT_CONFIGURED"
	ErrCodeStoreUnavailable   = "STORE_UNAVAILABLE"

	// LLM-related error codes.
	ErrCodeCredentials    = "MISSING_CREDENTIALS"
	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// CodeOf returns the ScrapeError code carried anywhere in err's chain,
// or ErrCodeInternal.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// AsScrapeError returns the ScrapeError in err's chain, wrapping err as
// an internal error when there is none.
func AsScrapeError(err error) *ScrapeError {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return NewScrapeError(ErrCodeInternal, err.Error(), err)
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
