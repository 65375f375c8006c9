package models

import (
	"errors"
	"fmt"
)

// Error codes used in run reports and internal error handling.
const (
	ErrCodeInput      = "INPUT_ERROR"
	ErrCodeFormat     = "FORMAT_ERROR"
	ErrCodeFilesystem = "FILESYSTEM_ERROR"
	ErrCodeBrowser    = "BROWSER_ERROR"

	// Per-question codes. These never abort a run.
	ErrCodeTimeout    = "CAPTURE_TIMEOUT"
	ErrCodeNavigation = "NAVIGATION_FAILED"
	ErrCodeCapture    = "CAPTURE_FAILED"
)

// ErrorDetail is the structured error recorded in run reports.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type Error struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error.
func NewError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to a report-facing ErrorDetail.
func (e *Error) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Error()}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
