//go:build !linux

package fsutil

// RenameNoReplace renames oldpath to newpath, failing with fs.ErrExist if
// newpath exists.
func RenameNoReplace(oldpath, newpath string) error {
	return renameNoReplaceFallback(oldpath, newpath)
}
