// Package storeerr defines the fixed taxonomy of backing-store failures.
// Adapters translate driver errors into this shape at the boundary so the
// rest of the application branches on Kind and never inspects raw errors.
package storeerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the outcome class of a store failure.
type Kind int

const (
	// KindUnknown covers anything not matching a known code. The raw detail
	// is logged, never surfaced to end users.
	KindUnknown Kind = iota
	// KindConflict is a uniqueness violation (duplicate email or other
	// unique constraint). The caller must change its input.
	KindConflict
	// KindValidation is a missing/malformed/oversized value rejected by a
	// store-side constraint.
	KindValidation
	// KindAuthorization is access denied by store-side policy.
	KindAuthorization
	// KindNotFound means the referenced record (or relation) is absent.
	// Expected on lookups; not fatal.
	KindNotFound
	// KindConnectivity is a transport failure (refused, DNS, timeout).
	// Retrying without changing input may succeed.
	KindConnectivity
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConnectivity:
		return "connectivity"
	default:
		return "unknown"
	}
}

// Error is a classified store failure. UserMessage is safe to render to end
// users; Code/Detail/Hint carry the raw driver context for logs only.
type Error struct {
	Kind        Kind
	UserMessage string
	Code        string // driver error code when one exists, e.g. "23505"
	Detail      string
	Hint        string
	Cause       error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store %s (%s): %s", e.Kind, e.Code, e.Detail)
	}
	return fmt.Sprintf("store %s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Cause }

// Message returns the user-facing text, falling back to the kind's default.
func (e *Error) Message() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return DefaultMessage(e.Kind)
}

// HTTPStatus maps the kind to the status class the API responds with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConnectivity:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Fixed user-facing messages per kind. The email-specific conflict message is
// chosen by the classifier, not here.
const (
	MsgEmailConflict   = "A user with this email address already exists. Please use a different email."
	MsgGenericConflict = "This record conflicts with existing data. Please check your input."
	MsgValidation      = "The provided data is invalid. Please check your input and try again."
	MsgAuthorization   = "You do not have permission to perform this action."
	MsgNotFound        = "The requested record was not found."
	MsgConnectivity    = "Unable to reach the database. Please check your connection and try again."
	MsgUnknown         = "The operation could not be completed. Please try again."
)

// DefaultMessage returns the generic message for a kind.
func DefaultMessage(k Kind) string {
	switch k {
	case KindConflict:
		return MsgGenericConflict
	case KindValidation:
		return MsgValidation
	case KindAuthorization:
		return MsgAuthorization
	case KindNotFound:
		return MsgNotFound
	case KindConnectivity:
		return MsgConnectivity
	default:
		return MsgUnknown
	}
}

// New builds a classified error with the kind's default user message.
func New(kind Kind, cause error) *Error {
	e := &Error{Kind: kind, UserMessage: DefaultMessage(kind), Cause: cause}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// As extracts a classified error from err, or wraps err as KindUnknown so
// callers always see the taxonomy.
func As(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return New(KindUnknown, err)
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}
