package fsutil

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockWriteSyncCloser implements writeSyncCloser for testing
type mockWriteSyncCloser struct {
	buffer      *bytes.Buffer
	name        string
	writeErr    error
	syncErr     error
	closeErr    error
	writeCalled bool
	syncCalled  bool
	closeCalled bool
}

func newMockWriteSyncCloser(name string) *mockWriteSyncCloser {
	return &mockWriteSyncCloser{
		buffer: new(bytes.Buffer),
		name:   name,
	}
}

func (m *mockWriteSyncCloser) Write(p []byte) (n int, err error) {
	m.writeCalled = true
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return m.buffer.Write(p)
}

func (m *mockWriteSyncCloser) Sync() error {
	m.syncCalled = true
	return m.syncErr
}

func (m *mockWriteSyncCloser) Close() error {
	m.closeCalled = true
	return m.closeErr
}

func (m *mockWriteSyncCloser) Name() string {
	return m.name
}

// mockedFS returns an OSFileSystem whose temp file is mockFile and whose
// remove calls are recorded instead of executed.
func mockedFS(mockFile *mockWriteSyncCloser, removed *[]string) *OSFileSystem {
	fsys := NewOSFileSystem()
	fsys.createTemp = func(dir, pattern string) (writeSyncCloser, error) {
		return mockFile, nil
	}
	fsys.chmod = func(name string, mode os.FileMode) error { return nil }
	fsys.remove = func(name string) error {
		*removed = append(*removed, name)
		return nil
	}
	return fsys
}

func sourceFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

func TestCopyFile_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("createTemp fails - no side effects", func(t *testing.T) {
		src := sourceFile(t, "content")
		fsys := NewOSFileSystem()
		fsys.createTemp = func(dir, pattern string) (writeSyncCloser, error) {
			return nil, errors.New("disk full")
		}

		err := fsys.CopyFile(ctx, src, "/test/file.txt", nil, false)

		var tfe *TempFileError
		require.ErrorAs(t, err, &tfe)
		assert.Equal(t, "/test", tfe.Dir)
	})

	t.Run("write fails - temp cleaned up", func(t *testing.T) {
		src := sourceFile(t, "content")
		mockFile := newMockWriteSyncCloser("/tmp/test-123")
		mockFile.writeErr = errors.New("write failed")
		var removed []string
		fsys := mockedFS(mockFile, &removed)

		err := fsys.CopyFile(ctx, src, "/test/file.txt", nil, false)

		var twe *TempWriteError
		require.ErrorAs(t, err, &twe)
		assert.True(t, mockFile.writeCalled)
		assert.Equal(t, []string{"/tmp/test-123"}, removed)
	})

	t.Run("sync fails - temp cleaned up", func(t *testing.T) {
		src := sourceFile(t, "content")
		mockFile := newMockWriteSyncCloser("/tmp/test-456")
		mockFile.syncErr = errors.New("sync failed")
		var removed []string
		fsys := mockedFS(mockFile, &removed)

		err := fsys.CopyFile(ctx, src, "/test/file.txt", nil, false)

		var tse *TempSyncError
		require.ErrorAs(t, err, &tse)
		assert.True(t, mockFile.syncCalled)
		assert.Equal(t, []string{"/tmp/test-456"}, removed)
	})

	t.Run("close fails - temp cleaned up", func(t *testing.T) {
		src := sourceFile(t, "content")
		mockFile := newMockWriteSyncCloser("/tmp/test-789")
		mockFile.closeErr = errors.New("close failed")
		var removed []string
		fsys := mockedFS(mockFile, &removed)

		err := fsys.CopyFile(ctx, src, "/test/file.txt", nil, false)

		var tce *TempCloseError
		require.ErrorAs(t, err, &tce)
		assert.True(t, mockFile.closeCalled)
		assert.Equal(t, []string{"/tmp/test-789"}, removed)
	})

	t.Run("publish finds destination taken - temp cleaned up", func(t *testing.T) {
		src := sourceFile(t, "content")
		mockFile := newMockWriteSyncCloser("/tmp/test-abc")
		var removed []string
		fsys := mockedFS(mockFile, &removed)
		fsys.renameNoReplace = func(oldpath, newpath string) error {
			return &os.LinkError{Op: "renameat2", Old: oldpath, New: newpath, Err: fs.ErrExist}
		}

		err := fsys.CopyFile(ctx, src, "/test/file.txt", nil, false)

		assert.ErrorIs(t, err, fs.ErrExist)
		assert.Equal(t, []string{"/tmp/test-abc"}, removed)
	})

	t.Run("cancelled context - nothing published", func(t *testing.T) {
		src := sourceFile(t, "content")
		mockFile := newMockWriteSyncCloser("/tmp/test-ctx")
		var removed []string
		fsys := mockedFS(mockFile, &removed)
		fsys.renameNoReplace = func(oldpath, newpath string) error {
			t.Fatal("publish must not run after cancellation")
			return nil
		}
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := fsys.CopyFile(cancelled, src, "/test/file.txt", nil, false)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, []string{"/tmp/test-ctx"}, removed)
	})

	t.Run("byte budget exceeded", func(t *testing.T) {
		src := sourceFile(t, "0123456789")
		mockFile := newMockWriteSyncCloser("/tmp/test-budget")
		var removed []string
		fsys := mockedFS(mockFile, &removed)

		err := fsys.CopyFile(ctx, src, "/test/file.txt", NewBudget(4, 0), false)

		var le *LimitError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "bytes", le.Resource)
		assert.Equal(t, []string{"/tmp/test-budget"}, removed)
	})

	t.Run("source is a directory", func(t *testing.T) {
		fsys := NewOSFileSystem()
		err := fsys.CopyFile(ctx, t.TempDir(), "/test/file.txt", nil, false)

		var nre *NotRegularError
		assert.ErrorAs(t, err, &nre)
	})
}

func TestCopyFile_Success(t *testing.T) {
	src := sourceFile(t, "content")
	mockFile := newMockWriteSyncCloser("/tmp/test-success")
	var removed []string
	fsys := mockedFS(mockFile, &removed)

	var chmodMode os.FileMode
	fsys.chmod = func(name string, mode os.FileMode) error {
		assert.Equal(t, mockFile.name, name)
		chmodMode = mode
		return nil
	}
	var published [2]string
	fsys.renameNoReplace = func(oldpath, newpath string) error {
		published = [2]string{oldpath, newpath}
		return nil
	}
	fsys.rename = func(oldpath, newpath string) error {
		t.Fatal("replacing rename must not be used without replace")
		return nil
	}

	b := NewBudget(0, 0)
	err := fsys.CopyFile(context.Background(), src, "/test/file.txt", b, false)

	require.NoError(t, err)
	assert.Equal(t, "content", mockFile.buffer.String())
	assert.True(t, mockFile.syncCalled)
	assert.True(t, mockFile.closeCalled)
	assert.Equal(t, os.FileMode(0o640), chmodMode)
	assert.Equal(t, [2]string{"/tmp/test-success", "/test/file.txt"}, published)
	assert.Empty(t, removed)
	assert.Equal(t, int64(7), b.Bytes())
	assert.Equal(t, 1, b.Entries())
}

func TestCopyFile_ReplaceUsesRename(t *testing.T) {
	src := sourceFile(t, "content")
	mockFile := newMockWriteSyncCloser("/tmp/test-replace")
	var removed []string
	fsys := mockedFS(mockFile, &removed)

	renamed := false
	fsys.rename = func(oldpath, newpath string) error {
		renamed = true
		return nil
	}
	fsys.renameNoReplace = func(oldpath, newpath string) error {
		t.Fatal("no-clobber rename must not be used with replace")
		return nil
	}

	require.NoError(t, fsys.CopyFile(context.Background(), src, "/test/file.txt", nil, true))
	assert.True(t, renamed)
}

func TestReadFileHead(t *testing.T) {
	path := sourceFile(t, "0123456789")
	fsys := NewOSFileSystem()

	tests := []struct {
		name     string
		limit    int64
		expected string
	}{
		{name: "whole file", expected: "0123456789"},
		{name: "prefix", limit: 4, expected: "0123"},
		{name: "limit past end", limit: 40, expected: "0123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fsys.ReadFileHead(path, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}

	_, err := fsys.ReadFileHead(path+".missing", 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestListDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.Symlink("a.txt", filepath.Join(dir, "link")))

	infos, err := NewOSFileSystem().ListDir(dir)

	require.NoError(t, err)
	modes := map[string]os.FileMode{}
	for _, info := range infos {
		modes[info.Name()] = info.Mode().Type()
	}
	assert.Equal(t, map[string]os.FileMode{
		"a.txt": 0,
		"sub":   fs.ModeDir,
		"link":  fs.ModeSymlink,
	}, modes)
}

func TestCreateExclusiveAndMkdir(t *testing.T) {
	dir := t.TempDir()
	fsys := NewOSFileSystem()

	require.NoError(t, fsys.CreateExclusive(filepath.Join(dir, "new.txt")))
	assert.ErrorIs(t, fsys.CreateExclusive(filepath.Join(dir, "new.txt")), fs.ErrExist)

	require.NoError(t, fsys.Mkdir(filepath.Join(dir, "folder")))
	assert.ErrorIs(t, fsys.Mkdir(filepath.Join(dir, "folder")), fs.ErrExist)
	assert.ErrorIs(t, fsys.Mkdir(filepath.Join(dir, "missing", "folder")), fs.ErrNotExist)
}
