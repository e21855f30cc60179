// Package apperr defines the closed set of client-facing error kinds.
// Components return *Error values; anything else reaching the HTTP layer is
// treated as an unknown internal failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Kind classifies an error for translation into an HTTP response.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindDuplicateKey
	KindInvalidID
	KindTokenMalformed
	KindTokenExpired
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindBadRequest
	KindTooManyRequests
	KindResetInvalid
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateKey:
		return "duplicate_key"
	case KindInvalidID:
		return "invalid_id"
	case KindTokenMalformed:
		return "token_malformed"
	case KindTokenExpired:
		return "token_expired"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindResetInvalid:
		return "reset_invalid"
	case KindInternal:
		return "internal"
	case KindUnknown:
		return "unknown"
	}
	return "unknown"
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindDuplicateKey, KindInvalidID, KindBadRequest, KindResetInvalid:
		return http.StatusBadRequest
	case KindTokenMalformed, KindTokenExpired, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindInternal, KindUnknown:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Operational reports whether the error message is safe to show to clients.
func (k Kind) Operational() bool {
	return k != KindUnknown
}

// FieldError describes a single field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the concrete error type carried through the request pipeline.
type Error struct {
	Kind    Kind
	Message string
	// Field and Value identify the offending input for InvalidID and DuplicateKey.
	Field  string
	Value  string
	Fields []FieldError
	// Err always holds an oops error so a stack trace is available in development.
	Err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string, cause error) *Error {
	b := oops.Code(kind.String())
	var err error
	if cause != nil {
		err = b.Wrap(cause)
	} else {
		err = b.Errorf("%s", msg)
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation builds an error listing every invalid field.
func Validation(fields []FieldError) *Error {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Message)
	}
	e := newError(KindValidation, "Invalid input data. "+strings.Join(msgs, ". "), nil)
	e.Fields = fields
	return e
}

// DuplicateKey reports a uniqueness violation on field.
func DuplicateKey(field, value string) *Error {
	e := newError(KindDuplicateKey,
		fmt.Sprintf("Duplicate field value: %q. Please use another value!", value), nil)
	e.Field = field
	e.Value = value
	return e
}

// InvalidID reports an identifier that cannot be parsed.
func InvalidID(field, value string) *Error {
	e := newError(KindInvalidID, fmt.Sprintf("Invalid %s: %s.", field, value), nil)
	e.Field = field
	e.Value = value
	return e
}

func TokenMalformed(cause error) *Error {
	return newError(KindTokenMalformed, "Invalid token! Please login again.", cause)
}

func TokenExpired(cause error) *Error {
	return newError(KindTokenExpired, "Your token has expired! Please log in again.", cause)
}

func Unauthenticated(msg string) *Error {
	return newError(KindUnauthenticated, msg, nil)
}

func Forbidden(msg string) *Error {
	return newError(KindForbidden, msg, nil)
}

func NotFound(msg string) *Error {
	return newError(KindNotFound, msg, nil)
}

func BadRequest(msg string) *Error {
	return newError(KindBadRequest, msg, nil)
}

func TooManyRequests(msg string) *Error {
	return newError(KindTooManyRequests, msg, nil)
}

func ResetInvalid() *Error {
	return newError(KindResetInvalid, "Token is invalid or has expired", nil)
}

// Internal is a server-side failure whose message is still meant for the client.
func Internal(msg string, cause error) *Error {
	return newError(KindInternal, msg, cause)
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}
