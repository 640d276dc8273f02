package fsutil

import (
	"io"
	"os"
)

// writeSyncCloser defines the minimal interface for a writable file handle.
// This abstraction allows testing without depending on concrete *os.File.
type writeSyncCloser interface {
	io.Writer
	Sync() error
	Close() error
	Name() string
}

// OSFileSystem implements filesystem operations using the local OS filesystem primitives.
// It uses internal function fields to enable testability via functional injection.
type OSFileSystem struct {
	// Internal syscall wrappers for testability
	createTemp      func(dir, pattern string) (writeSyncCloser, error)
	rename          func(oldpath, newpath string) error
	renameNoReplace func(oldpath, newpath string) error
	chmod           func(name string, mode os.FileMode) error
	remove          func(name string) error
}

// NewOSFileSystem creates a new OSFileSystem with real OS syscalls.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{
		createTemp: func(dir, pattern string) (writeSyncCloser, error) {
			return os.CreateTemp(dir, pattern)
		},
		rename:          os.Rename,
		renameNoReplace: RenameNoReplace,
		chmod:           os.Chmod,
		remove:          os.Remove,
	}
}

// Stat returns file info for a path (follows symlinks).
func (r *OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Lstat returns file info for a path without following symlinks.
func (r *OSFileSystem) Lstat(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}

// Readlink reads the target of a symlink.
func (r *OSFileSystem) Readlink(path string) (string, error) {
	return os.Readlink(path)
}

// ReadFileHead reads at most limit bytes from the start of a file.
// A limit of 0 reads the entire file.
func (r *OSFileSystem) ReadFileHead(path string, limit int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rd io.Reader = file
	if limit > 0 {
		rd = io.LimitReader(file, limit)
	}
	return io.ReadAll(rd)
}

// ListDir lists the contents of a directory.
// Entries are described without following symlinks.
func (r *OSFileSystem) ListDir(path string) ([]os.FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	infos := make([]os.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Entry vanished between readdir and lstat.
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		infos = append(infos, info)
	}

	return infos, nil
}

// Mkdir creates a single directory. It fails if path already exists.
func (r *OSFileSystem) Mkdir(path string) error {
	return os.Mkdir(path, 0o755)
}

// CreateExclusive creates an empty file, failing if anything already exists at path.
func (r *OSFileSystem) CreateExclusive(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// Symlink creates link pointing at target.
func (r *OSFileSystem) Symlink(target, link string) error {
	return os.Symlink(target, link)
}

// Remove removes a file or an empty directory.
func (r *OSFileSystem) Remove(path string) error {
	return r.remove(path)
}

// RemoveAll removes path and everything below it.
func (r *OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Rename renames oldpath to newpath, replacing a non-directory at newpath.
func (r *OSFileSystem) Rename(oldpath, newpath string) error {
	return r.rename(oldpath, newpath)
}

// RenameNoReplace renames oldpath to newpath and fails with fs.ErrExist if
// newpath exists at the moment of the rename.
func (r *OSFileSystem) RenameNoReplace(oldpath, newpath string) error {
	return r.renameNoReplace(oldpath, newpath)
}
