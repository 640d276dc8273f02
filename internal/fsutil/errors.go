package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"github.com/Cyclone1070/fileview/internal/access"
)

// TempFileError is returned when creating a temp file or directory fails.
type TempFileError struct {
	Dir   string
	Cause error
}

func (e *TempFileError) Error() string {
	return fmt.Sprintf("failed to create temp file in %s: %v", e.Dir, e.Cause)
}

func (e *TempFileError) Unwrap() error {
	return e.Cause
}

// TempWriteError is returned when writing to a temp file fails.
type TempWriteError struct {
	Path  string
	Cause error
}

func (e *TempWriteError) Error() string {
	return fmt.Sprintf("failed to write to temp file %s: %v", e.Path, e.Cause)
}

func (e *TempWriteError) Unwrap() error {
	return e.Cause
}

// TempSyncError is returned when syncing a temp file fails.
type TempSyncError struct {
	Path  string
	Cause error
}

func (e *TempSyncError) Error() string {
	return fmt.Sprintf("failed to sync temp file %s: %v", e.Path, e.Cause)
}

func (e *TempSyncError) Unwrap() error {
	return e.Cause
}

// TempCloseError is returned when closing a temp file fails.
type TempCloseError struct {
	Path  string
	Cause error
}

func (e *TempCloseError) Error() string {
	return fmt.Sprintf("failed to close temp file %s: %v", e.Path, e.Cause)
}

func (e *TempCloseError) Unwrap() error {
	return e.Cause
}

// RenameError is returned when publishing a copy or moving an entry fails.
type RenameError struct {
	Old   string
	New   string
	Cause error
}

func (e *RenameError) Error() string {
	return fmt.Sprintf("failed to rename %s to %s: %v", e.Old, e.New, e.Cause)
}

func (e *RenameError) Unwrap() error {
	return e.Cause
}

// ChmodError is returned when changing file permissions fails.
type ChmodError struct {
	Path  string
	Mode  os.FileMode
	Cause error
}

func (e *ChmodError) Error() string {
	return fmt.Sprintf("failed to set permissions for %s to %v: %v", e.Path, e.Mode, e.Cause)
}

func (e *ChmodError) Unwrap() error {
	return e.Cause
}

// NotRegularError is returned when a copy meets an entry it cannot reproduce
// (device, socket, fifo) or expected a regular file.
type NotRegularError struct {
	Path string
	Mode os.FileMode
}

func (e *NotRegularError) Error() string {
	return fmt.Sprintf("%s is not a regular file (mode %v)", e.Path, e.Mode.Type())
}

// LimitError is returned when a copy exceeds its byte or entry budget.
type LimitError struct {
	Resource string
	Max      int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("copy exceeds the %s limit of %d", e.Resource, e.Max)
}

// Classify maps an OS or copy error to an access failure kind.
func Classify(err error) access.FailureKind {
	var (
		notRegular *NotRegularError
		limit      *LimitError
	)
	switch {
	case err == nil:
		return access.KindNone
	case errors.Is(err, fs.ErrExist):
		return access.KindConflict
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.ELOOP):
		return access.KindNotFound
	case errors.As(err, &notRegular), errors.Is(err, syscall.EISDIR):
		return access.KindTypeMismatch
	case errors.As(err, &limit):
		return access.KindInvalid
	default:
		return access.KindIO
	}
}
