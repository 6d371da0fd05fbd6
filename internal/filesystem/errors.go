package filesystem

import (
	"errors"
	"fmt"
)

// Kind categorizes failures reported by the filesystem engine.
//
// The set is closed. Callers dispatch on it with KindOf or errors.Is against
// the ErrNotAccessible, ErrInvalidResource and ErrIO sentinels; transports map
// each kind to their own status codes.
type Kind int

const (
	// KindNotAccessible indicates the resource does not exist or cannot be read
	KindNotAccessible Kind = iota + 1

	// KindInvalidResource indicates a file was given where a directory was
	// expected, or the other way round
	KindInvalidResource

	// KindIO indicates an underlying filesystem or archive failure
	KindIO
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNotAccessible:
		return "resource not accessible"
	case KindInvalidResource:
		return "invalid resource type"
	case KindIO:
		return "i/o failure"
	default:
		return "unknown"
	}
}

// Sentinels matching any Error of the corresponding kind.
var (
	ErrNotAccessible   = &Error{Kind: KindNotAccessible}
	ErrInvalidResource = &Error{Kind: KindInvalidResource}
	ErrIO              = &Error{Kind: KindIO}
)

// Error is the error type returned by the engine and the repository facade.
type Error struct {
	// Kind is the error category
	Kind Kind

	// Op names the failing operation (e.g. "copy", "list")
	Op string

	// Path is the repository or host path involved, if any
	Path string

	// Message is a human-readable description
	Message string

	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind when the target carries no
// operation, path or cause, which is how the sentinels are built.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" || t.Path != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0 if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// NotAccessible builds a KindNotAccessible error.
func NotAccessible(op, path string, cause error) *Error {
	return &Error{Kind: KindNotAccessible, Op: op, Path: path, Err: cause}
}

// InvalidResource builds a KindInvalidResource error with a formatted message.
func InvalidResource(op, path, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidResource, Op: op, Path: path, Message: fmt.Sprintf(format, args...)}
}

// IOFailure wraps cause as a KindIO error. An *Error cause is returned as-is
// so kinds assigned deeper in the engine survive.
func IOFailure(op, path string, cause error) error {
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
	return &Error{Kind: KindIO, Op: op, Path: path, Err: cause}
}
