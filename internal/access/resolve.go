package access

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// maxSymlinkHops bounds a single symlink chain, matching the Linux limit.
const maxSymlinkHops = 40

var (
	errRelativePath = errors.New("path is not absolute")
	errSymlinkLoop  = errors.New("symlink loop")
	errBadLeaf      = errors.New("destination has no usable file name")
)

// FileSystem defines the filesystem operations path resolution needs.
type FileSystem interface {
	Lstat(path string) (os.FileInfo, error)
	Readlink(path string) (string, error)
}

type osFileSystem struct{}

func (osFileSystem) Lstat(path string) (os.FileInfo, error) { return os.Lstat(path) }
func (osFileSystem) Readlink(path string) (string, error)   { return os.Readlink(path) }

// Resolver converts normalized paths into canonical, symlink-free paths.
type Resolver struct {
	fs FileSystem
}

// NewResolver creates a resolver over fs; nil means the OS filesystem.
func NewResolver(fs FileSystem) *Resolver {
	if fs == nil {
		fs = osFileSystem{}
	}
	return &Resolver{fs: fs}
}

// Resolve returns the canonical form of an absolute path with every symlink
// followed to its final target. Missing components and broken or cyclic links
// fail with a NotFound-kind *PathError; other lstat/readlink failures fail
// with an IO-kind *PathError.
func (r *Resolver) Resolve(normalized string) (string, error) {
	if !filepath.IsAbs(normalized) {
		return "", newPathError("resolve", normalized, KindDenied, errRelativePath)
	}

	root := filepath.VolumeName(normalized) + string(filepath.Separator)
	return r.walk(root, normalized, splitComponents(normalized), 0)
}

// ResolveParent resolves the directory that would contain normalized and
// returns canonical(parent)/leaf. The leaf itself is not required to exist
// and is not followed if it is a symlink.
func (r *Resolver) ResolveParent(normalized string) (string, error) {
	if !filepath.IsAbs(normalized) {
		return "", newPathError("resolve", normalized, KindDenied, errRelativePath)
	}

	leaf := filepath.Base(normalized)
	if leaf == "." || leaf == ".." || leaf == string(filepath.Separator) {
		return "", newPathError("resolve", normalized, KindInvalid, errBadLeaf)
	}

	parent, err := r.Resolve(filepath.Dir(normalized))
	if err != nil {
		var pe *PathError
		if errors.As(err, &pe) && pe.nearest != "" {
			pe.nearest = filepath.Join(pe.nearest, leaf)
		}
		return "", err
	}
	return filepath.Join(parent, leaf), nil
}

// walk resolves parts one component at a time starting from the canonical
// directory current. hops counts symlinks followed across the whole walk.
func (r *Resolver) walk(current, original string, parts []string, hops int) (string, error) {
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		switch part {
		case "", ".":
			continue
		case "..":
			current = filepath.Dir(current)
			continue
		}

		next := filepath.Join(current, part)
		info, err := r.fs.Lstat(next)
		if err != nil {
			kind := classifyLookup(err)
			pe := newPathError("resolve", original, kind, err)
			pe.nearest = joinRemaining(next, parts[i+1:])
			return "", pe
		}

		if info.Mode()&os.ModeSymlink == 0 {
			current = next
			continue
		}

		hops++
		if hops > maxSymlinkHops {
			return "", newPathError("resolve", original, KindNotFound, errSymlinkLoop)
		}

		target, err := r.fs.Readlink(next)
		if err != nil {
			pe := newPathError("resolve", original, classifyLookup(err), err)
			pe.nearest = joinRemaining(next, parts[i+1:])
			return "", pe
		}

		// Continue from the link's directory (or the filesystem root for an
		// absolute target) with the target's components spliced in front of
		// the remaining ones.
		base := current
		if filepath.IsAbs(target) {
			base = filepath.VolumeName(target) + string(filepath.Separator)
		}
		rest := append(splitComponents(target), parts[i+1:]...)
		return r.walk(base, original, rest, hops)
	}

	return current, nil
}

// classifyLookup maps a lookup failure to NotFound or IO.
func classifyLookup(err error) FailureKind {
	switch {
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.ELOOP),
		errors.Is(err, syscall.ENAMETOOLONG):
		return KindNotFound
	default:
		return KindIO
	}
}

func splitComponents(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}

// joinRemaining appends the unresolved components to base lexically.
func joinRemaining(base string, rest []string) string {
	return filepath.Join(append([]string{base}, rest...)...)
}
