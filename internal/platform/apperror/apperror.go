// Package apperror defines the error type that crosses the HTTP boundary.
// Services return sentinel errors; handlers translate them into *Error values
// carrying the status and the machine-readable code clients switch on.
package apperror

import (
	"errors"
	"net/http"
)

// Error codes returned in the "code" field of error responses.
const (
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidTokenType   = "INVALID_TOKEN_TYPE"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUserInactive       = "USER_INACTIVE"
	CodeNoUser             = "NO_USER"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimited        = "RATE_LIMITED"
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicateEntry     = "DUPLICATE_ENTRY"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountInactive    = "ACCOUNT_INACTIVE"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodeUserInvalid        = "USER_INVALID"
	CodeInvalidPassword    = "INVALID_PASSWORD"
	CodeSelfDemotion       = "SELF_DEMOTION"
	CodeSelfDeletion       = "SELF_DELETION"
	CodeBadRequest         = "BAD_REQUEST"
	CodeInternal           = "INTERNAL_ERROR"
)

// Error is an HTTP-facing error. Message is shown to clients; Err is for logs only.
type Error struct {
	Status  int
	Code    string
	Message string
	Details any
	// Fields are extra top-level members of the response body (e.g. retryAfter).
	Fields map[string]any
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error with the given status, code and message.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithField returns a copy of e with an extra top-level response member.
func (e *Error) WithField(key string, value any) *Error {
	c := *e
	c.Fields = make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		c.Fields[k] = v
	}
	c.Fields[key] = value
	return &c
}

// Wrap returns a copy of e recording cause for logging.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func BadRequest(code, message string) *Error { return New(http.StatusBadRequest, code, message) }

func Unauthorized(code, message string) *Error { return New(http.StatusUnauthorized, code, message) }

func Forbidden(message string) *Error { return New(http.StatusForbidden, CodeForbidden, message) }

func NotFound(message string) *Error { return New(http.StatusNotFound, CodeNotFound, message) }

func Conflict(code, message string) *Error { return New(http.StatusConflict, code, message) }

// Internal wraps cause as a 500. The message is replaced by the renderer in production.
func Internal(cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Internal server error", Err: cause}
}
