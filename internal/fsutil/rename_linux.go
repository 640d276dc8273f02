//go:build linux

package fsutil

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// RenameNoReplace renames oldpath to newpath with renameat2(RENAME_NOREPLACE).
// Filesystems that do not support the flag fall back to a link-based rename.
func RenameNoReplace(oldpath, newpath string) error {
	err := unix.Renameat2(unix.AT_FDCWD, oldpath, unix.AT_FDCWD, newpath, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EINVAL) && !isSubdirRename(oldpath, newpath):
		return renameNoReplaceFallback(oldpath, newpath)
	}
	return &os.LinkError{Op: "renameat2", Old: oldpath, New: newpath, Err: err}
}

// isSubdirRename reports whether newpath lies under oldpath, the other
// reason renameat2 answers EINVAL.
func isSubdirRename(oldpath, newpath string) bool {
	return len(newpath) > len(oldpath) && newpath[:len(oldpath)] == oldpath && newpath[len(oldpath)] == os.PathSeparator
}
