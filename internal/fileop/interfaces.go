package fileop

import (
	"context"
	"os"

	"github.com/Cyclone1070/fileview/internal/access"
	"github.com/Cyclone1070/fileview/internal/fsutil"
)

// FileSystem defines the filesystem operations needed to execute plans.
type FileSystem interface {
	Lstat(path string) (os.FileInfo, error)
	ListDir(path string) ([]os.FileInfo, error)
	CopyFile(ctx context.Context, src, dst string, b *fsutil.Budget, replace bool) error
	CopyTree(ctx context.Context, src, dst string, b *fsutil.Budget) error
	CopyLink(src, dst string, b *fsutil.Budget) error
	Mkdir(path string) error
	CreateExclusive(path string) error
	Remove(path string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
	RenameNoReplace(oldpath, newpath string) error
}

// PathChecker re-resolves canonical paths against the policy in force.
type PathChecker interface {
	ResolveCanonical(path string) (access.Target, error)
}
