package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error and decides its HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindTenantResolution
	KindConflict
	KindTooManyRequests
)

func (k Kind) Status() int {
	switch k {
	case KindValidation, KindTenantResolution:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindTenantResolution:
		return "tenant_resolution"
	case KindConflict:
		return "conflict"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Error is the error type services return to controllers.
// Extra carries response fields beyond error/message, e.g. the unresolved subdomain.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Extra   map[string]interface{}
	Err     error
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

// Is matches on kind and code so sentinel errors compare equal to
// copies decorated with fields or a cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithExtra returns a copy carrying an additional response field.
func (e *Error) WithExtra(key string, value interface{}) *Error {
	cp := *e
	cp.Extra = make(map[string]interface{}, len(e.Extra)+1)
	for k, v := range e.Extra {
		cp.Extra[k] = v
	}
	cp.Extra[key] = value
	return &cp
}

// WithMessage returns a copy with a different message.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

func Validation(code, message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Fields: fields}
}

// Field is a shorthand for a validation error on a single field.
func Field(field, message string) *Error {
	return Validation(ValidationInvalidInput, message, map[string]string{field: message})
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Unauthenticated(code, message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

func TenantResolution(code, message string) *Error {
	return &Error{Kind: KindTenantResolution, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func Throttled(message string) *Error {
	return &Error{Kind: KindTooManyRequests, Code: RateLimitExceeded, Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: InternalServerError, Message: message, Err: err}
}

// As extracts an *Error from err, wrapping anything else as internal.
func As(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error", err)
}

// KindOf reports the kind of err; non-application errors are internal.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
