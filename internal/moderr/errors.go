// Package moderr defines the error kinds returned by modslayer's core.
//
// Every failure that reaches a caller is either one of the sentinel kinds
// below or an *Error wrapping one of them together with the operation and
// path involved. Callers test for a kind with errors.Is.
package moderr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates a required path is unset or missing.
	ErrConfiguration = errors.New("configuration error")

	// ErrPermission indicates a path exists but lacks the required access.
	ErrPermission = errors.New("permission denied")

	// ErrDuplicatePath indicates an install target name is already taken.
	ErrDuplicatePath = errors.New("duplicate path")

	// ErrNotFound indicates an operation referenced an id that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange indicates an index outside a list's bounds.
	ErrOutOfRange = errors.New("index out of range")

	// ErrInstall indicates a payload copy or delete failed.
	ErrInstall = errors.New("install failed")

	// ErrPersistence indicates a durable store could not be written.
	ErrPersistence = errors.New("persistence failed")

	// ErrNoExecutable indicates no launchable executable was found.
	ErrNoExecutable = errors.New("no executable found")

	// ErrLaunch indicates the resolved target could not be started.
	ErrLaunch = errors.New("launch failed")

	// ErrCancelled indicates the user declined a requested choice.
	ErrCancelled = errors.New("cancelled")
)

// Error carries the operation and path context for a failure of a given kind.
type Error struct {
	// Kind is one of the sentinel errors of this package.
	Kind error

	// Op names the operation that failed, e.g. "install file".
	Op string

	// Path is the filesystem path involved, if any.
	Path string

	// Err is the underlying cause, if any.
	Err error
}

// New returns an *Error of the given kind.
func New(kind error, op, path string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: cause}
}

// Errorf returns an *Error of the given kind whose cause is a formatted message.
func Errorf(kind error, op, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the sentinel kind of err, or nil if err carries none.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrConfiguration,
		ErrPermission,
		ErrDuplicatePath,
		ErrNotFound,
		ErrOutOfRange,
		ErrInstall,
		ErrPersistence,
		ErrNoExecutable,
		ErrLaunch,
		ErrCancelled,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
