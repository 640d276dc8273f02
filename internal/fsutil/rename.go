package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"sync"
)

// dirRenameMu serialises fallback directory renames made by this process.
var dirRenameMu sync.Mutex

// renameNoReplaceFallback emulates a no-clobber rename where the kernel has
// no native flag. Non-directories are published with link+unlink, which fails
// atomically if newpath exists. Directories cannot be hard-linked, so the
// existence check and rename are serialised instead; that only excludes races
// with other renames in this process.
func renameNoReplaceFallback(oldpath, newpath string) error {
	info, err := os.Lstat(oldpath)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		if err := os.Link(oldpath, newpath); err != nil {
			return err
		}
		return os.Remove(oldpath)
	}

	dirRenameMu.Lock()
	defer dirRenameMu.Unlock()

	if _, err := os.Lstat(newpath); err == nil {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(oldpath, newpath)
}
