package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for translation at the HTTP boundary.
type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Auth
	Conflict
	AIContent
	AIMalformed
	AIUnavailable
	Timeout
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Auth:
		return "auth"
	case Conflict:
		return "conflict"
	case AIContent:
		return "ai_content"
	case AIMalformed:
		return "ai_malformed"
	case AIUnavailable:
		return "ai_unavailable"
	case Timeout:
		return "timeout"
	case Unavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error carries a client-safe message plus an optional cause that is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: Validation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Internal server error"
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps an error to the status code returned to clients.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation, AIContent, Conflict:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Auth:
		return http.StatusUnauthorized
	case AIUnavailable:
		return http.StatusBadGateway
	case Timeout:
		return http.StatusGatewayTimeout
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
