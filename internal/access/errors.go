package access

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a path or operation was refused.
type FailureKind int

const (
	KindNone FailureKind = iota
	KindDenied
	KindNotFound
	KindTypeMismatch
	KindConflict
	KindIO
	KindInvalid
)

func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDenied:
		return "denied"
	case KindNotFound:
		return "not_found"
	case KindTypeMismatch:
		return "type_mismatch"
	case KindConflict:
		return "conflict"
	case KindIO:
		return "io_error"
	case KindInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// -- Sentinels --

var (
	ErrDenied       = errors.New("path not allowed")
	ErrNotFound     = errors.New("path not found")
	ErrTypeMismatch = errors.New("operation not valid for this file type")
	ErrConflict     = errors.New("destination already exists")
	ErrIO           = errors.New("filesystem error")
	ErrInvalid      = errors.New("invalid request")

	// ErrMutationsDisabled is a Denied-kind error returned when file operations are off.
	ErrMutationsDisabled = fmt.Errorf("%w: file operations are disabled", ErrDenied)
)

func sentinelFor(k FailureKind) error {
	switch k {
	case KindDenied:
		return ErrDenied
	case KindNotFound:
		return ErrNotFound
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindConflict:
		return ErrConflict
	case KindIO:
		return ErrIO
	case KindInvalid:
		return ErrInvalid
	}
	return nil
}

// -- Error Types --

// PathError records a refusal for a single path.
// Path holds full detail for internal logging; it must not be sent to clients
// for Denied or IO failures.
type PathError struct {
	Op    string
	Path  string
	Kind  FailureKind
	Cause error

	// nearest is the best canonical approximation of Path the resolver reached
	// before failing. The validator guards it to decide what may be revealed.
	nearest string
}

func (e *PathError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Path, sentinelFor(e.Kind))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PathError) Unwrap() error { return e.Cause }

// Is matches the sentinel of the error's kind.
func (e *PathError) Is(target error) bool {
	s := sentinelFor(e.Kind)
	return s != nil && target == s
}

func newPathError(op, path string, kind FailureKind, cause error) *PathError {
	return &PathError{Op: op, Path: path, Kind: kind, Cause: cause}
}

// RootError is returned when a configured allowed root cannot be used.
type RootError struct {
	Root  string
	Cause error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("invalid allowed root %s: %v", e.Root, e.Cause)
}
func (e *RootError) Unwrap() error { return e.Cause }

// KindOf returns the failure kind carried by err.
func KindOf(err error) FailureKind {
	if err == nil {
		return KindNone
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	for _, k := range []FailureKind{KindDenied, KindNotFound, KindTypeMismatch, KindConflict, KindInvalid, KindIO} {
		if errors.Is(err, sentinelFor(k)) {
			return k
		}
	}
	return KindIO
}
