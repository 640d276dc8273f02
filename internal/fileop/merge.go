package fileop

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/Cyclone1070/fileview/internal/access"
	"github.com/Cyclone1070/fileview/internal/fsutil"
)

// merge copies the entries of src into the existing directory dst. Entries
// missing from dst are created; directories present on both sides are merged
// recursively; any other clash is a conflict. On failure every entry this
// call created is removed again, newest first.
func (e *Executor) merge(ctx context.Context, op access.OperationKind, src, dst string, budget *fsutil.Budget) error {
	var created []string
	if err := e.mergeDir(ctx, op, src, dst, budget, &created); err != nil {
		e.rollback(created)
		return err
	}
	return nil
}

func (e *Executor) mergeDir(ctx context.Context, op access.OperationKind, src, dst string, budget *fsutil.Budget, created *[]string) error {
	entries, err := e.fs.ListDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())

		existing, err := e.fs.Lstat(to)
		switch {
		case err == nil:
			if !entry.IsDir() || !existing.IsDir() {
				return kindError(op, to, access.KindConflict, errEntryConflict)
			}
			if err := e.mergeDir(ctx, op, from, to, budget, created); err != nil {
				return err
			}
			continue
		case !errors.Is(err, fs.ErrNotExist):
			return err
		}

		mode := entry.Mode()
		switch {
		case mode.IsDir():
			err = e.fs.CopyTree(ctx, from, to, budget)
		case mode&fs.ModeSymlink != 0:
			err = e.fs.CopyLink(from, to, budget)
		default:
			err = e.fs.CopyFile(ctx, from, to, budget, false)
		}
		if err != nil {
			return err
		}
		*created = append(*created, to)
	}
	return nil
}

func (e *Executor) rollback(created []string) {
	for i := len(created) - 1; i >= 0; i-- {
		if err := e.fs.RemoveAll(created[i]); err != nil {
			e.logger.Warn("merge rollback failed", "path", created[i], "error", err)
		}
	}
}
