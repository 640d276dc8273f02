package access

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// canonicalTempDir returns a fresh temp dir with symlinks resolved
// (macOS places temp dirs behind /var -> /private/var).
func canonicalTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
}

func symlink(t *testing.T, target, link string) {
	t.Helper()
	require.NoError(t, os.Symlink(target, link))
}

// faultyFS wraps the OS filesystem and injects errors for chosen paths.
type faultyFS struct {
	osFileSystem
	lstatErrs    map[string]error
	readlinkErrs map[string]error
}

func newFaultyFS() *faultyFS {
	return &faultyFS{
		lstatErrs:    make(map[string]error),
		readlinkErrs: make(map[string]error),
	}
}

func (f *faultyFS) Lstat(path string) (os.FileInfo, error) {
	if err, ok := f.lstatErrs[path]; ok {
		return nil, err
	}
	return f.osFileSystem.Lstat(path)
}

func (f *faultyFS) Readlink(path string) (string, error) {
	if err, ok := f.readlinkErrs[path]; ok {
		return "", err
	}
	return f.osFileSystem.Readlink(path)
}

// layout builds:
//
//	base/
//	  files/            (allowed root)
//	    a.txt
//	    docs/readme.md
//	    empty/
//	    link-in  -> docs            (relative, stays inside)
//	    link-out -> ../outside      (escapes)
//	    link-file-out -> ../outside/secret.txt
//	    dangling -> missing.txt
//	  files2/b.txt      (sibling sharing the root's prefix)
//	  outside/secret.txt
type layout struct {
	base    string
	root    string
	sibling string
	outside string
}

func newLayout(t *testing.T) layout {
	t.Helper()
	base := canonicalTempDir(t)
	l := layout{
		base:    base,
		root:    filepath.Join(base, "files"),
		sibling: filepath.Join(base, "files2"),
		outside: filepath.Join(base, "outside"),
	}

	writeFile(t, filepath.Join(l.root, "a.txt"), "alpha")
	writeFile(t, filepath.Join(l.root, "docs", "readme.md"), "# readme")
	mkdir(t, filepath.Join(l.root, "empty"))
	writeFile(t, filepath.Join(l.sibling, "b.txt"), "beta")
	writeFile(t, filepath.Join(l.outside, "secret.txt"), "secret")

	symlink(t, "docs", filepath.Join(l.root, "link-in"))
	symlink(t, "../outside", filepath.Join(l.root, "link-out"))
	symlink(t, "../outside/secret.txt", filepath.Join(l.root, "link-file-out"))
	symlink(t, "missing.txt", filepath.Join(l.root, "dangling"))

	return l
}

func (l layout) policy(t *testing.T, opts PolicyOptions) *Policy {
	t.Helper()
	if opts.AllowedPaths == nil {
		opts.AllowedPaths = []string{l.root}
	}
	p, err := NewPolicy(opts)
	require.NoError(t, err)
	return p
}

// swapSource is a Source whose snapshot a test can replace mid-run.
type swapSource struct {
	current atomic.Pointer[Policy]
}

func newSwapSource(p *Policy) *swapSource {
	s := &swapSource{}
	s.current.Store(p)
	return s
}

func (s *swapSource) Current() *Policy { return s.current.Load() }
func (s *swapSource) Swap(p *Policy)   { s.current.Store(p) }
