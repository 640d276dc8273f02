package browse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreReadError is returned when an ignore file exists but cannot be read.
type IgnoreReadError struct {
	Path  string
	Cause error
}

func (e *IgnoreReadError) Error() string {
	return fmt.Sprintf("failed to read ignore file at %s: %v", e.Path, e.Cause)
}
func (e *IgnoreReadError) Unwrap() error { return e.Cause }

// IgnoreMatcher applies gitignore-style patterns relative to one allowed root.
// A nil matcher never ignores.
type IgnoreMatcher struct {
	matcher gitignore.Matcher
}

// ParseIgnore builds a matcher from the content of an ignore file. Blank
// lines and comments are skipped.
func ParseIgnore(content string) *IgnoreMatcher {
	var patterns []gitignore.Pattern
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if len(patterns) == 0 {
		return &IgnoreMatcher{}
	}
	return &IgnoreMatcher{matcher: gitignore.NewMatcher(patterns)}
}

// ShouldIgnore checks a path relative to the root the patterns belong to.
func (m *IgnoreMatcher) ShouldIgnore(relativePath string, isDir bool) bool {
	if m == nil || m.matcher == nil {
		return false
	}
	segments := splitPath(relativePath)
	if len(segments) == 0 {
		return false
	}
	return m.matcher.Match(segments, isDir)
}

// splitPath splits a path into segments for gitignore matching.
// It normalizes path separators and filters out empty and "." segments.
func splitPath(path string) []string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}

type cachedIgnore struct {
	modTime time.Time
	size    int64
	matcher *IgnoreMatcher
}

// IgnoreCache loads the ignore file of each root on demand and reloads it
// when the file changes.
type IgnoreCache struct {
	fs   FileSystem
	name string

	mu      sync.Mutex
	entries map[string]cachedIgnore
}

// NewIgnoreCache creates a cache reading the file called name in each root.
// An empty name disables ignore files.
func NewIgnoreCache(fs FileSystem, name string) *IgnoreCache {
	return &IgnoreCache{fs: fs, name: name, entries: make(map[string]cachedIgnore)}
}

// For returns the matcher for root. A missing ignore file yields a matcher
// that never ignores.
func (c *IgnoreCache) For(root string) (*IgnoreMatcher, error) {
	if c == nil || c.name == "" {
		return &IgnoreMatcher{}, nil
	}
	path := filepath.Join(root, c.name)

	info, err := c.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &IgnoreMatcher{}, nil
		}
		return nil, &IgnoreReadError{Path: path, Cause: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[root]; ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return e.matcher, nil
	}

	content, err := c.fs.ReadFileHead(path, 0)
	if err != nil {
		return nil, &IgnoreReadError{Path: path, Cause: err}
	}
	m := ParseIgnore(string(content))
	c.entries[root] = cachedIgnore{modTime: info.ModTime(), size: info.Size(), matcher: m}
	return m, nil
}
