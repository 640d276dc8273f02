package fileop

import (
	"errors"

	"github.com/Cyclone1070/fileview/internal/access"
	"github.com/Cyclone1070/fileview/internal/fsutil"
)

var (
	errPathChanged   = errors.New("path changed since validation")
	errTypeChanged   = errors.New("source changed type since validation")
	errNotRegular    = errors.New("only regular files can be deleted")
	errDestIsDir     = errors.New("cannot overwrite a directory")
	errEntryConflict = errors.New("entry exists in destination")
	errInvalidPlan   = errors.New("plan is missing a path")
)

// opError wraps a filesystem failure in an access.PathError of the matching kind.
func opError(op access.OperationKind, path string, err error) error {
	var pe *access.PathError
	if errors.As(err, &pe) {
		return err
	}
	return &access.PathError{Op: string(op), Path: path, Kind: fsutil.Classify(err), Cause: err}
}

func kindError(op access.OperationKind, path string, kind access.FailureKind, cause error) error {
	return &access.PathError{Op: string(op), Path: path, Kind: kind, Cause: cause}
}
