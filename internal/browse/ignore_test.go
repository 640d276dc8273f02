package browse

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/fileview/internal/fsutil"
)

func TestIgnoreMatcher(t *testing.T) {
	m := ParseIgnore("# comment\n\n*.log\n!keep.log\nnode_modules/\n/top-only.txt\ndocs/**/draft.md\r\n")

	tests := []struct {
		path     string
		isDir    bool
		expected bool
	}{
		{path: "app.log", expected: true},
		{path: "sub/app.log", expected: true},
		{path: "keep.log", expected: false},
		{path: "node_modules", isDir: true, expected: true},
		{path: "node_modules", isDir: false, expected: false},
		{path: "top-only.txt", expected: true},
		{path: "sub/top-only.txt", expected: false},
		{path: "docs/a/b/draft.md", expected: true},
		{path: "docs/final.md", expected: false},
		{path: "# comment", expected: false},
		{path: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.ShouldIgnore(tt.path, tt.isDir))
		})
	}
}

func TestIgnoreMatcher_Empty(t *testing.T) {
	var nilMatcher *IgnoreMatcher
	assert.False(t, nilMatcher.ShouldIgnore("a.log", false))
	assert.False(t, ParseIgnore("\n# only comments\n").ShouldIgnore("a.log", false))
}

func TestIgnoreCache_ReloadsOnChange(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".fileviewignore")
	require.NoError(t, os.WriteFile(path, []byte("*.log\n"), 0o644))
	cache := NewIgnoreCache(fsutil.NewOSFileSystem(), ".fileviewignore")

	m, err := cache.For(root)
	require.NoError(t, err)
	assert.True(t, m.ShouldIgnore("a.log", false))

	again, err := cache.For(root)
	require.NoError(t, err)
	assert.Same(t, m, again)

	require.NoError(t, os.WriteFile(path, []byte("*.tmp\n"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	m, err = cache.For(root)
	require.NoError(t, err)
	assert.False(t, m.ShouldIgnore("a.log", false))
	assert.True(t, m.ShouldIgnore("a.tmp", false))
}

func TestIgnoreCache_MissingOrDisabled(t *testing.T) {
	root := t.TempDir()

	m, err := NewIgnoreCache(fsutil.NewOSFileSystem(), ".fileviewignore").For(root)
	require.NoError(t, err)
	assert.False(t, m.ShouldIgnore("a.log", false))

	require.NoError(t, os.WriteFile(filepath.Join(root, ".fileviewignore"), []byte("*\n"), 0o644))
	m, err = NewIgnoreCache(fsutil.NewOSFileSystem(), "").For(root)
	require.NoError(t, err)
	assert.False(t, m.ShouldIgnore("a.log", false))
}

func TestApplyPagination(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name      string
		offset    int
		limit     int
		expected  []int
		truncated bool
	}{
		{name: "first page", offset: 0, limit: 2, expected: []int{1, 2}, truncated: true},
		{name: "exact end", offset: 3, limit: 2, expected: []int{4, 5}, truncated: false},
		{name: "overshoot", offset: 4, limit: 10, expected: []int{5}, truncated: false},
		{name: "offset past end", offset: 9, limit: 2, expected: []int{}, truncated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, result := ApplyPagination(items, tt.offset, tt.limit)
			assert.Equal(t, tt.expected, page)
			assert.Equal(t, 5, result.TotalCount)
			assert.Equal(t, tt.truncated, result.Truncated)
		})
	}
}
