// Package apperr defines the typed error taxonomy shared by all domain
// handlers. The HTTP boundary maps these to the wire envelope
// {"error":{"code","message","details?"}}.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Code is a stable, machine-readable error code.
type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeFeatureDisabled Code = "FEATURE_DISABLED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// Error is a typed domain error.
type Error struct {
	Code    Code
	Message string
	Details any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus derives the transport status from the code.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeFeatureDisabled:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches a details payload for the response envelope.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details}
}

func Validation(msg string) *Error      { return New(CodeValidation, msg) }
func Unauthorized(msg string) *Error    { return New(CodeUnauthorized, msg) }
func Forbidden(msg string) *Error       { return New(CodeForbidden, msg) }
func FeatureDisabled(msg string) *Error { return New(CodeFeatureDisabled, msg) }
func NotFound(msg string) *Error        { return New(CodeNotFound, msg) }
func Conflict(msg string) *Error        { return New(CodeConflict, msg) }
func Internal(msg string) *Error        { return New(CodeInternal, msg) }

// Payload renders the wire envelope body for this error.
func (e *Error) Payload() map[string]any {
	body := map[string]any{
		"code":    string(e.Code),
		"message": e.Message,
	}
	if e.Details != nil {
		body["details"] = e.Details
	}
	return map[string]any{"error": body}
}

// From normalizes an arbitrary error into an *Error. Store-level sentinel
// errors are translated; anything unrecognized becomes INTERNAL_ERROR.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("resource not found")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Conflict("duplicate resource")
	}
	return Internal("internal error")
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
