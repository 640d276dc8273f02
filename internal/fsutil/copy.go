package fsutil

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

const (
	copyChunkSize = 256 * 1024

	// TempPrefix names the staging files and directories copies are built in.
	TempPrefix = ".fileview-tmp-"
)

// Budget bounds the bytes and entries one copy may produce. A zero limit
// means unbounded. A Budget is not safe for concurrent use.
type Budget struct {
	MaxBytes   int64
	MaxEntries int

	bytes   int64
	entries int
}

// NewBudget creates a budget with the given limits.
func NewBudget(maxBytes int64, maxEntries int) *Budget {
	return &Budget{MaxBytes: maxBytes, MaxEntries: maxEntries}
}

// Bytes returns the bytes charged so far.
func (b *Budget) Bytes() int64 { return b.bytes }

// Entries returns the entries charged so far.
func (b *Budget) Entries() int { return b.entries }

func (b *Budget) chargeBytes(n int64) error {
	if b == nil {
		return nil
	}
	if b.MaxBytes > 0 && b.bytes+n > b.MaxBytes {
		return &LimitError{Resource: "bytes", Max: b.MaxBytes}
	}
	b.bytes += n
	return nil
}

func (b *Budget) chargeEntry() error {
	if b == nil {
		return nil
	}
	if b.MaxEntries > 0 && b.entries+1 > b.MaxEntries {
		return &LimitError{Resource: "entries", Max: int64(b.MaxEntries)}
	}
	b.entries++
	return nil
}

// CopyFile copies the regular file src to dst. The data is written to a temp
// file in dst's directory, synced, and then published: with replace false the
// publish fails with fs.ErrExist if dst exists by then, with replace true a
// non-directory at dst is replaced. On failure the temp file is removed and dst
// is left untouched.
func (r *OSFileSystem) CopyFile(ctx context.Context, src, dst string, b *Budget, replace bool) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return &NotRegularError{Path: src, Mode: info.Mode()}
	}
	if err := b.chargeEntry(); err != nil {
		return err
	}

	dir := filepath.Dir(dst)
	tmpFile, err := r.createTemp(dir, TempPrefix+"*")
	if err != nil {
		return &TempFileError{Dir: dir, Cause: err}
	}

	tmpPath := tmpFile.Name()
	needsCleanup := true

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
		}
		if needsCleanup {
			_ = r.remove(tmpPath)
		}
	}()

	if err := copyChunks(ctx, tmpFile, in, b); err != nil {
		return err
	}

	if err := tmpFile.Sync(); err != nil {
		return &TempSyncError{Path: tmpPath, Cause: err}
	}

	// Close file before rename (required on some systems)
	if err := tmpFile.Close(); err != nil {
		tmpFile = nil
		return &TempCloseError{Path: tmpPath, Cause: err}
	}
	tmpFile = nil

	if err := r.chmod(tmpPath, info.Mode().Perm()); err != nil {
		return &ChmodError{Path: tmpPath, Mode: info.Mode().Perm(), Cause: err}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	publish := r.renameNoReplace
	if replace {
		publish = r.rename
	}
	if err := publish(tmpPath, dst); err != nil {
		return &RenameError{Old: tmpPath, New: dst, Cause: err}
	}
	needsCleanup = false

	return nil
}

// CopyTree copies the directory src to dst. The tree is assembled in a temp
// directory next to dst and published with a single no-clobber rename, so dst
// either appears complete or not at all. Symlinks inside the tree are
// recreated as links and never followed.
func (r *OSFileSystem) CopyTree(ctx context.Context, src, dst string, b *Budget) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &NotRegularError{Path: src, Mode: info.Mode()}
	}
	if err := b.chargeEntry(); err != nil {
		return err
	}

	dir := filepath.Dir(dst)
	tmpDir, err := os.MkdirTemp(dir, TempPrefix+"*")
	if err != nil {
		return &TempFileError{Dir: dir, Cause: err}
	}
	published := false
	defer func() {
		if !published {
			_ = os.RemoveAll(tmpDir)
		}
	}()

	if err := r.copyDirContents(ctx, src, tmpDir, b); err != nil {
		return err
	}
	if err := r.chmod(tmpDir, info.Mode().Perm()); err != nil {
		return &ChmodError{Path: tmpDir, Mode: info.Mode().Perm(), Cause: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.renameNoReplace(tmpDir, dst); err != nil {
		return &RenameError{Old: tmpDir, New: dst, Cause: err}
	}
	published = true
	return nil
}

// CopyLink recreates the symlink src at dst with the same target.
func (r *OSFileSystem) CopyLink(src, dst string, b *Budget) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if err := b.chargeEntry(); err != nil {
		return err
	}
	return r.Symlink(target, dst)
}

// copyDirContents copies the entries of src into the existing, private
// directory dst.
func (r *OSFileSystem) copyDirContents(ctx context.Context, src, dst string, b *Budget) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())

		info, err := entry.Info()
		if err != nil {
			return err
		}

		switch mode := info.Mode(); {
		case mode.IsDir():
			if err := b.chargeEntry(); err != nil {
				return err
			}
			if err := os.Mkdir(to, 0o700); err != nil {
				return err
			}
			if err := r.copyDirContents(ctx, from, to, b); err != nil {
				return err
			}
			if err := r.chmod(to, mode.Perm()); err != nil {
				return &ChmodError{Path: to, Mode: mode.Perm(), Cause: err}
			}
		case mode&os.ModeSymlink != 0:
			if err := r.CopyLink(from, to, b); err != nil {
				return err
			}
		case mode.IsRegular():
			if err := copyRegular(ctx, from, to, mode.Perm(), b); err != nil {
				return err
			}
		default:
			return &NotRegularError{Path: from, Mode: mode}
		}
	}
	return nil
}

// copyRegular writes a new file inside a staging directory; no publish step needed.
func copyRegular(ctx context.Context, src, dst string, perm os.FileMode, b *Budget) error {
	if err := b.chargeEntry(); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}

	if err := copyChunks(ctx, out, in, b); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func copyChunks(ctx context.Context, w writeSyncCloser, rd io.Reader, b *Budget) error {
	buf := make([]byte, copyChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := rd.Read(buf)
		if n > 0 {
			if err := b.chargeBytes(int64(n)); err != nil {
				return err
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return &TempWriteError{Path: w.Name(), Cause: err}
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}
