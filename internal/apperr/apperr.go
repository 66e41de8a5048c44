// Package apperr defines the classified error type used across the client.
//
// Failures are sorted into a small set of kinds that decide how the UI
// reacts: configuration problems are persistent, authentication problems
// clear the session, transient network problems may be retried by the user,
// validation problems never reach the network, and server submission
// problems leave a form editable for resubmission.
//
// Every error that leaves a service layer should be wrapped as an [*Error]
// so callers can branch on [KindOf] instead of string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the application should react to it.
type Kind int

const (
	// KindUnknown marks errors that were never classified.
	KindUnknown Kind = iota

	// KindConfiguration marks missing or invalid local configuration
	// (backend URL, identity client id). Fatal to the affected feature,
	// never retried automatically.
	KindConfiguration

	// KindAuthentication marks a credential or token rejected by the
	// backend. The session is untrustworthy and must be cleared.
	KindAuthentication

	// KindTransientNetwork marks transport-level failures. Recoverable;
	// the user may retry manually.
	KindTransientNetwork

	// KindValidation marks bad field or file input. Blocks submission
	// before any network call.
	KindValidation

	// KindServerSubmission marks a backend failure response for a
	// generation or upload request. The form stays editable.
	KindServerSubmission
)

// String returns a short machine-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindTransientNetwork:
		return "transient_network"
	case KindValidation:
		return "validation"
	case KindServerSubmission:
		return "server_submission"
	default:
		return "unknown"
	}
}

// Error is the canonical classified error for the client.
//
// Message is safe to show to the user. Cause carries the underlying error
// for logging and errors.Is/As traversal; it is never printed to the user
// verbatim.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface with the user-safe message.
func (e *Error) Error() string { return e.Message }

// Unwrap lets errors.Is and errors.As walk the cause chain.
func (e *Error) Unwrap() error { return e.Cause }

// Configuration builds a configuration error.
func Configuration(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Authentication builds an authentication error wrapping cause.
func Authentication(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindAuthentication, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// TransientNetwork builds a transient network error wrapping cause.
func TransientNetwork(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindTransientNetwork, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Validation builds a validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ServerSubmission builds a server submission error wrapping cause.
func ServerSubmission(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindServerSubmission, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf reports the classification of err, or KindUnknown when err is nil
// or carries no *Error in its chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// As extracts the *Error from err's chain, or nil when absent.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
