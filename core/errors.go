package core

import "github.com/pkg/errors"

var (
	// ErrNotAuthenticated is returned when an operation requiring an identity
	// is attempted with none. It fails fast: no remote call is made.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrForbidden is returned when a role-gated operation is attempted by a
	// role outside the allowed set. It fails fast: no remote call is made.
	ErrForbidden = errors.New("permission denied")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// RemoteError wraps a failure reported by the backing store. It is always
// recoverable: the caller's local cache is left at its last-known-good state.
type RemoteError struct {
	Op  string
	Err error
}

func NewRemoteError(op string, err error) error {
	return &RemoteError{Op: op, Err: err}
}

func (err RemoteError) Error() string {
	return err.Op + ": " + err.Err.Error()
}

func (err RemoteError) Unwrap() error { return err.Err }

func IsRemote(err error) bool {
	_, ok := errors.Cause(err).(*RemoteError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
