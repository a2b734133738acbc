package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorStorage      = errors.New("storage error")
	ErrorValidation   = errors.New("validation error")

	// Access token errors. An expired token matches both.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Kind classifies an Error for the transport boundaries.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindConflict
	KindNotFound
	KindStorage
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnauthorized:
		return ErrorUnauthorized
	case KindConflict:
		return ErrorAlreadyExists
	case KindNotFound:
		return ErrorNotFound
	case KindStorage:
		return ErrorStorage
	case KindInvalid:
		return ErrorValidation
	default:
		return ErrorInternal
	}
}

// Error is a classified service error. Detail is safe to show to clients;
// Err keeps the underlying cause for logs.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Detail
	}
	return fmt.Sprintf("%s: %v", e.Detail, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrorUnauthorized) and friends work for the
// matching kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func newError(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}

func Unauthorized(detail string, cause error) error {
	return newError(KindUnauthorized, detail, cause)
}

func Conflict(detail string) error { return newError(KindConflict, detail, nil) }

func NotFound(detail string) error { return newError(KindNotFound, detail, nil) }

func Invalid(detail string) error { return newError(KindInvalid, detail, nil) }

func Internal(detail string, cause error) error {
	return newError(KindInternal, detail, cause)
}

// Storage wraps a persistence failure. Already classified errors are
// returned unchanged.
func Storage(cause error) error {
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
	return newError(KindStorage, "storage failure", cause)
}

// KindOf reports the kind of err. Bare sentinels are classified too, any
// other error is KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrorUnauthorized), errors.Is(err, ErrInvalidToken):
		return KindUnauthorized
	case errors.Is(err, ErrorAlreadyExists):
		return KindConflict
	case errors.Is(err, ErrorNotFound):
		return KindNotFound
	case errors.Is(err, ErrorValidation):
		return KindInvalid
	case errors.Is(err, ErrorStorage):
		return KindStorage
	}
	return KindInternal
}

// DetailOf returns the client-facing message for err.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	switch KindOf(err) {
	case KindUnauthorized:
		return "Unauthorized"
	case KindNotFound:
		return "Not found"
	case KindConflict:
		return "Already exists"
	case KindInvalid:
		return "Invalid request"
	}
	return "Internal server error"
}
