package fileop

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Cyclone1070/fileview/internal/access"
	"github.com/Cyclone1070/fileview/internal/fsutil"
)

// Limits bounds the data one copy or cross-device move may produce.
type Limits struct {
	MaxCopyBytes   int64
	MaxCopyEntries int
}

// Result describes a completed operation.
type Result struct {
	Kind        access.OperationKind `json:"operation"`
	Source      string               `json:"source,omitempty"`
	Destination string               `json:"destination,omitempty"`
	Bytes       int64                `json:"bytes_copied,omitempty"`
	Entries     int                  `json:"entries_copied,omitempty"`
}

// Executor carries out validated plans. Every plan is re-checked against the
// live filesystem, and every step that creates a name uses a primitive that
// fails instead of replacing something that appeared after validation.
type Executor struct {
	fs     FileSystem
	paths  PathChecker
	limits Limits
	logger *slog.Logger
}

// NewExecutor creates an executor. paths is normally the access.Validator the
// plans came from.
func NewExecutor(fs FileSystem, paths PathChecker, limits Limits, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{fs: fs, paths: paths, limits: limits, logger: logger}
}

// Execute runs plan. Errors are *access.PathError values so callers can map
// them with access.KindOf.
func (e *Executor) Execute(ctx context.Context, plan *access.Plan) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{Kind: plan.Kind}
	if plan.Source != nil {
		result.Source = plan.Source.Path
	}
	if plan.Destination != nil {
		result.Destination = plan.Destination.Path
	}

	budget := fsutil.NewBudget(e.limits.MaxCopyBytes, e.limits.MaxCopyEntries)

	var err error
	switch plan.Kind {
	case access.OpDelete:
		err = e.delete(plan)
	case access.OpMkdir:
		err = e.mkdir(plan)
	case access.OpCreate:
		err = e.create(plan)
	case access.OpCopy:
		err = e.copy(ctx, plan, budget)
	case access.OpMove, access.OpRename:
		err = e.move(ctx, plan, budget)
	default:
		err = kindError(plan.Kind, "", access.KindInvalid, errInvalidPlan)
	}
	if err != nil {
		return nil, err
	}

	result.Bytes = budget.Bytes()
	result.Entries = budget.Entries()
	e.logger.Info("file operation completed",
		"operation", plan.Kind,
		"source", result.Source,
		"destination", result.Destination,
		"bytes", result.Bytes,
		"duration", time.Since(start),
	)
	return result, nil
}

// recheckSource verifies the source still resolves to itself inside the
// allowlist and still has the type it had at validation. For a symlink source
// the returned info describes the link's target.
func (e *Executor) recheckSource(plan *access.Plan) (fs.FileInfo, error) {
	if plan.Source == nil {
		return nil, kindError(plan.Kind, "", access.KindInvalid, errInvalidPlan)
	}
	if plan.SourceIsLink {
		return e.recheckLink(plan)
	}
	src := plan.Source.Path

	target, err := e.paths.ResolveCanonical(src)
	if err != nil {
		return nil, err
	}
	if target.Path != src {
		return nil, kindError(plan.Kind, src, access.KindConflict, errPathChanged)
	}

	info, err := e.fs.Lstat(src)
	if err != nil {
		return nil, opError(plan.Kind, src, err)
	}
	if info.IsDir() != plan.SourceIsDir {
		return nil, kindError(plan.Kind, src, access.KindTypeMismatch, errTypeChanged)
	}
	return info, nil
}

// recheckLink verifies the link entry still sits in the same allowed
// directory, is still a symlink and still points inside the allowlist.
func (e *Executor) recheckLink(plan *access.Plan) (fs.FileInfo, error) {
	src := plan.Source.Path
	parent := filepath.Dir(src)

	dir, err := e.paths.ResolveCanonical(parent)
	if err != nil {
		return nil, err
	}
	if dir.Path != parent {
		return nil, kindError(plan.Kind, src, access.KindConflict, errPathChanged)
	}

	info, err := e.fs.Lstat(src)
	if err != nil {
		return nil, opError(plan.Kind, src, err)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return nil, kindError(plan.Kind, src, access.KindTypeMismatch, errTypeChanged)
	}

	target, err := e.paths.ResolveCanonical(src)
	if err != nil {
		return nil, err
	}
	info, err = e.fs.Lstat(target.Path)
	if err != nil {
		return nil, opError(plan.Kind, src, err)
	}
	return info, nil
}

// recheckDestination verifies the destination's parent still resolves to
// itself inside the allowlist.
func (e *Executor) recheckDestination(plan *access.Plan) (string, error) {
	if plan.Destination == nil {
		return "", kindError(plan.Kind, "", access.KindInvalid, errInvalidPlan)
	}
	dst := plan.Destination.Path
	parent := filepath.Dir(dst)

	target, err := e.paths.ResolveCanonical(parent)
	if err != nil {
		return "", err
	}
	if target.Path != parent {
		return "", kindError(plan.Kind, dst, access.KindConflict, errPathChanged)
	}
	return dst, nil
}

func (e *Executor) delete(plan *access.Plan) error {
	info, err := e.recheckSource(plan)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return kindError(plan.Kind, plan.Source.Path, access.KindTypeMismatch, errNotRegular)
	}
	if err := e.fs.Remove(plan.Source.Path); err != nil {
		return opError(plan.Kind, plan.Source.Path, err)
	}
	return nil
}

func (e *Executor) mkdir(plan *access.Plan) error {
	dst, err := e.recheckDestination(plan)
	if err != nil {
		return err
	}
	if err := e.fs.Mkdir(dst); err != nil {
		return opError(plan.Kind, dst, err)
	}
	return nil
}

func (e *Executor) create(plan *access.Plan) error {
	dst, err := e.recheckDestination(plan)
	if err != nil {
		return err
	}
	if err := e.fs.CreateExclusive(dst); err != nil {
		return opError(plan.Kind, dst, err)
	}
	return nil
}

func (e *Executor) copy(ctx context.Context, plan *access.Plan, budget *fsutil.Budget) error {
	if _, err := e.recheckSource(plan); err != nil {
		return err
	}
	dst, err := e.recheckDestination(plan)
	if err != nil {
		return err
	}
	src := plan.Source.Path

	switch {
	case plan.Merge:
		err = e.merge(ctx, plan.Kind, src, dst, budget)
	case plan.SourceIsDir:
		err = e.fs.CopyTree(ctx, src, dst, budget)
	default:
		if plan.Overwrite {
			if err := e.ensureNotDir(plan.Kind, dst); err != nil {
				return err
			}
		}
		err = e.fs.CopyFile(ctx, src, dst, budget, plan.Overwrite)
	}
	if err != nil {
		return opError(plan.Kind, dst, err)
	}
	return nil
}

func (e *Executor) move(ctx context.Context, plan *access.Plan, budget *fsutil.Budget) error {
	if _, err := e.recheckSource(plan); err != nil {
		return err
	}
	dst, err := e.recheckDestination(plan)
	if err != nil {
		return err
	}
	src := plan.Source.Path

	if plan.Merge {
		if err := e.merge(ctx, plan.Kind, src, dst, budget); err != nil {
			return opError(plan.Kind, dst, err)
		}
		return e.removeMovedSource(plan.Kind, src, true)
	}

	if plan.Overwrite {
		if err := e.ensureNotDir(plan.Kind, dst); err != nil {
			return err
		}
		err = e.fs.Rename(src, dst)
	} else {
		err = e.fs.RenameNoReplace(src, dst)
	}
	if errors.Is(err, syscall.EXDEV) {
		return e.moveAcrossDevices(ctx, plan, budget)
	}
	if err != nil {
		return opError(plan.Kind, dst, err)
	}
	return nil
}

// moveAcrossDevices copies the source into place with the same no-clobber
// publish a copy uses, then removes the source.
func (e *Executor) moveAcrossDevices(ctx context.Context, plan *access.Plan, budget *fsutil.Budget) error {
	src, dst := plan.Source.Path, plan.Destination.Path
	e.logger.Debug("move crosses devices, copying", "source", src, "destination", dst)

	var err error
	switch {
	case plan.SourceIsLink:
		err = e.fs.CopyLink(src, dst, budget)
	case plan.SourceIsDir:
		err = e.fs.CopyTree(ctx, src, dst, budget)
	default:
		err = e.fs.CopyFile(ctx, src, dst, budget, plan.Overwrite)
	}
	if err != nil {
		return opError(plan.Kind, dst, err)
	}
	return e.removeMovedSource(plan.Kind, src, plan.SourceIsDir)
}

func (e *Executor) removeMovedSource(op access.OperationKind, src string, isDir bool) error {
	remove := e.fs.Remove
	if isDir {
		remove = e.fs.RemoveAll
	}
	if err := remove(src); err != nil {
		// The destination is complete; only the source cleanup failed.
		e.logger.Warn("moved entry but could not remove source", "source", src, "error", err)
		return opError(op, src, err)
	}
	return nil
}

func (e *Executor) ensureNotDir(op access.OperationKind, dst string) error {
	info, err := e.fs.Lstat(dst)
	if err == nil && info.IsDir() {
		return kindError(op, dst, access.KindConflict, errDestIsDir)
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return opError(op, dst, err)
	}
	return nil
}
