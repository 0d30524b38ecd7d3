// Package apierror names the small set of error kinds the server core
// translates into HTTP responses, per spec.md §7.
package apierror

import "fmt"

// Kind classifies an error for the purpose of choosing an HTTP status.
// AuthMissing and AuthInvalid are handled directly by the auth gate and
// never flow through this type; BadInput, TaskFailure and Fatal are.
type Kind int

const (
	BadInput Kind = iota
	TaskFailure
	Fatal
)

// Error wraps an underlying error with the Kind the handler layer should
// map it to.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func BadInputf(format string, args ...any) error {
	return &Error{Kind: BadInput, Err: fmt.Errorf(format, args...)}
}

func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// As reports whether err is an *Error, returning it if so.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
