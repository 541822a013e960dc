package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is implemented by errors that carry an HTTP status and a stable code
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// Kind classifies an application error
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindUnauthorized
	KindPermission
)

var kinds = [...]struct {
	status int
	code   string
}{
	KindInternal:     {http.StatusInternalServerError, "INTERNAL_ERROR"},
	KindNotFound:     {http.StatusNotFound, "NOT_FOUND"},
	KindValidation:   {http.StatusBadRequest, "VALIDATION_ERROR"},
	KindConflict:     {http.StatusConflict, "CONFLICT"},
	KindUnauthorized: {http.StatusUnauthorized, "UNAUTHORIZED"},
	KindPermission:   {http.StatusForbidden, "PERMISSION_DENIED"},
}

// Error is the single concrete application error
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) HTTPStatus() int { return kinds[e.Kind].status }

func (e *Error) Code() string { return kinds[e.Kind].code }

func (e *Error) Unwrap() error { return e.Cause }

// NewNotFoundError reports a missing page, model or record
func NewNotFoundError(resource, id string) *Error {
	msg := resource + " not found"
	if id != "" {
		msg = fmt.Sprintf("%s with ID '%s' not found", resource, id)
	}
	return &Error{Kind: KindNotFound, Message: msg}
}

// NewValidationError reports bad input on a named field
func NewValidationError(field, message string) *Error {
	if field == "" {
		return &Error{Kind: KindValidation, Message: "validation error: " + message}
	}
	return &Error{Kind: KindValidation, Message: fmt.Sprintf("validation error on field '%s': %s", field, message)}
}

// NewConflictError reports a clash with stored data, e.g. a taken URL segment
func NewConflictError(resource, field, value string) *Error {
	msg := resource + " already exists"
	if field != "" && value != "" {
		msg = fmt.Sprintf("%s already exists with %s='%s'", resource, field, value)
	}
	return &Error{Kind: KindConflict, Message: msg}
}

// NewUnauthorizedError reports a missing or invalid admin token
func NewUnauthorizedError(reason string) *Error {
	if reason == "" {
		return &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	}
	return &Error{Kind: KindUnauthorized, Message: "unauthorized: " + reason}
}

// NewPermissionError reports a token that lacks the privileges for action
func NewPermissionError(action, resource string) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf("permission denied: cannot %s %s", action, resource)}
}

// NewInternalError wraps an unexpected failure, usually from storage
func NewInternalError(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error: " + message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
// ok is false when err carries none.
func KindOf(err error) (kind Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindInternal, false
}

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsNotFound checks if an error is a not-found error
func IsNotFound(err error) bool { return is(err, KindNotFound) }

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return is(err, KindValidation) }

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool { return is(err, KindConflict) }

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool { return is(err, KindInternal) }

// GetHTTPStatus returns the HTTP status code for an error.
// Errors that do not implement AppError map to 500.
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body of a failed API call
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToResponse converts an error to an ErrorResponse
func ToResponse(err error) ErrorResponse {
	var appErr AppError
	if errors.As(err, &appErr) {
		return ErrorResponse{Code: appErr.Code(), Message: err.Error()}
	}
	return ErrorResponse{Code: "UNKNOWN_ERROR", Message: err.Error()}
}
