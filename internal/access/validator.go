package access

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// OperationKind names a mutation.
type OperationKind string

const (
	OpCopy   OperationKind = "copy"
	OpMove   OperationKind = "move"
	OpRename OperationKind = "rename"
	OpDelete OperationKind = "delete"
	OpMkdir  OperationKind = "mkdir"
	OpCreate OperationKind = "create"
)

func (k OperationKind) hasSource() bool {
	switch k {
	case OpCopy, OpMove, OpRename, OpDelete:
		return true
	}
	return false
}

func (k OperationKind) hasDestination() bool {
	switch k {
	case OpCopy, OpMove, OpRename, OpMkdir, OpCreate:
		return true
	}
	return false
}

// removesSource reports whether the operation takes the source's name away.
// These operations act on a symlink source itself, not on what it points to.
func (k OperationKind) removesSource() bool {
	switch k {
	case OpMove, OpRename, OpDelete:
		return true
	}
	return false
}

func (k OperationKind) valid() bool {
	return k.hasSource() || k.hasDestination()
}

var (
	errUnknownOperation  = errors.New("unknown operation")
	errSourceRequired    = errors.New("source is required")
	errDestRequired      = errors.New("destination is required")
	errDeleteNotFile     = errors.New("only regular files can be deleted")
	errIntoItself        = errors.New("cannot copy or move a directory into itself")
	errAllowedRoot       = errors.New("an allowed root cannot be moved, renamed or deleted")
	errParentNotDir      = errors.New("destination parent is not a directory")
	errSameAsSource      = errors.New("destination is the source")
	errDestinationExists = errors.New("destination already exists")
)

// OperationRequest is one client mutation request. Paths are raw and untrusted.
type OperationRequest struct {
	Kind        OperationKind
	Source      string
	Destination string
	Overwrite   bool
	Merge       bool
}

// Target is a canonical path together with the allowed root it lives under.
type Target struct {
	Path string
	Root string
}

// Plan is a validated mutation. Source or Destination is nil when the
// operation kind has no such side.
type Plan struct {
	Kind        OperationKind
	Source      *Target
	SourceIsDir bool
	// SourceIsLink marks a move, rename or delete whose source is a symlink.
	// Source.Path is then the link entry, not its target.
	SourceIsLink bool
	Destination  *Target

	// Overwrite is set only when the destination existed at validation time,
	// the request asked for it and the policy allows it.
	Overwrite bool
	// Merge is set only for a directory copied or moved onto an existing directory.
	Merge bool
}

// Validator runs the normalize → resolve → guard chain against the policy
// snapshot in force and applies operation-specific rules to mutations.
type Validator struct {
	policy   Source
	fs       FileSystem
	resolver *Resolver
}

// NewValidator creates a validator; fs nil means the OS filesystem.
func NewValidator(policy Source, fs FileSystem) *Validator {
	if fs == nil {
		fs = osFileSystem{}
	}
	return &Validator{
		policy:   policy,
		fs:       fs,
		resolver: NewResolver(fs),
	}
}

// Policy returns the snapshot currently in force.
func (v *Validator) Policy() *Policy {
	return v.policy.Current()
}

// Normalize applies the current conversion rule and lexical cleaning.
func (v *Validator) Normalize(raw string) string {
	return NewNormalizer(v.policy.Current().conversion).Normalize(raw)
}

// ResolveForRead turns a raw client path into an allowed canonical target.
// Paths outside every root fail with Denied whether or not they exist;
// NotFound and IO failures are only reported for paths inside a root.
func (v *Validator) ResolveForRead(raw string) (Target, error) {
	pol := v.policy.Current()
	return v.resolveForRead(pol, "read", raw)
}

// ResolveCanonical re-checks an already absolute, clean path (for example a
// directory entry built from a canonical parent) without applying the
// conversion rule.
func (v *Validator) ResolveCanonical(path string) (Target, error) {
	pol := v.policy.Current()
	canonical, err := v.resolver.Resolve(filepath.Clean(path))
	if err != nil {
		return Target{}, conceal(pol, "read", path, err)
	}
	return guard(pol, "read", path, canonical)
}

func (v *Validator) resolveForRead(pol *Policy, op, raw string) (Target, error) {
	normalized := NewNormalizer(pol.conversion).Normalize(raw)
	canonical, err := v.resolver.Resolve(normalized)
	if err != nil {
		return Target{}, conceal(pol, op, raw, err)
	}
	return guard(pol, op, raw, canonical)
}

func (v *Validator) resolveDestination(pol *Policy, raw string) (Target, error) {
	normalized := NewNormalizer(pol.conversion).Normalize(raw)
	canonical, err := v.resolver.ResolveParent(normalized)
	if err != nil {
		return Target{}, conceal(pol, "destination", raw, err)
	}
	return guard(pol, "destination", raw, canonical)
}

// resolveLink returns canonical(parent)/leaf for raw when that entry is a
// symlink. ok is false when it is not.
func (v *Validator) resolveLink(pol *Policy, op, raw string) (t Target, ok bool, err error) {
	normalized := NewNormalizer(pol.conversion).Normalize(raw)
	if filepath.Dir(normalized) == normalized {
		return Target{}, false, nil
	}
	entry, err := v.resolver.ResolveParent(normalized)
	if err != nil {
		return Target{}, false, conceal(pol, op, raw, err)
	}
	info, err := v.fs.Lstat(entry)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return Target{}, false, nil
	}
	t, err = guard(pol, op, raw, entry)
	if err != nil {
		return Target{}, false, err
	}
	return t, true, nil
}

func guard(pol *Policy, op, raw, canonical string) (Target, error) {
	verdict := Check(canonical, pol.roots)
	if !verdict.Allowed {
		return Target{}, newPathError(op, raw, KindDenied, nil)
	}
	return Target{Path: canonical, Root: verdict.MatchedRoot}, nil
}

// conceal rewrites a resolution failure to Denied unless the path it was
// heading for lies inside an allowed root. The original cause is dropped for
// denials so that errors.Is cannot observe it.
func conceal(pol *Policy, op, raw string, err error) error {
	var pe *PathError
	if !errors.As(err, &pe) {
		return newPathError(op, raw, KindIO, err)
	}
	if pe.Kind == KindDenied {
		return newPathError(op, raw, KindDenied, nil)
	}
	if pe.nearest == "" || !Check(pe.nearest, pol.roots).Allowed {
		return newPathError(op, raw, KindDenied, nil)
	}
	return newPathError(op, raw, pe.Kind, pe.Cause)
}

// Validate checks a mutation request end to end and returns the plan to
// execute. It performs no writes.
func (v *Validator) Validate(req OperationRequest) (*Plan, error) {
	pol := v.policy.Current()
	if !pol.mutationsEnabled {
		return nil, ErrMutationsDisabled
	}
	if !req.Kind.valid() {
		return nil, newPathError(string(req.Kind), "", KindInvalid, errUnknownOperation)
	}

	plan := &Plan{Kind: req.Kind}
	op := string(req.Kind)

	var srcInfo os.FileInfo
	if req.Kind.hasSource() {
		if req.Source == "" {
			return nil, newPathError(op, "", KindInvalid, errSourceRequired)
		}
		src, err := v.resolveForRead(pol, op, req.Source)
		if err != nil {
			return nil, err
		}
		srcInfo, err = v.fs.Lstat(src.Path)
		if err != nil {
			return nil, newPathError(op, req.Source, classifyLookup(err), err)
		}
		plan.Source = &src
		plan.SourceIsDir = srcInfo.IsDir()

		if req.Kind == OpDelete && !srcInfo.Mode().IsRegular() {
			return nil, newPathError(op, req.Source, KindTypeMismatch, errDeleteNotFile)
		}

		if req.Kind.removesSource() {
			// The link's target was guarded above; the entry is guarded too.
			link, ok, err := v.resolveLink(pol, op, req.Source)
			if err != nil {
				return nil, err
			}
			if ok {
				plan.Source = &link
				plan.SourceIsDir = false
				plan.SourceIsLink = true
			}
			if plan.Source.Path == plan.Source.Root {
				return nil, newPathError(op, req.Source, KindTypeMismatch, errAllowedRoot)
			}
		}
	}

	if !req.Kind.hasDestination() {
		return plan, nil
	}

	if req.Destination == "" {
		return nil, newPathError(op, "", KindInvalid, errDestRequired)
	}
	dst, err := v.resolveDestination(pol, req.Destination)
	if err != nil {
		return nil, err
	}
	plan.Destination = &dst

	parentInfo, err := v.fs.Lstat(filepath.Dir(dst.Path))
	if err != nil {
		return nil, newPathError(op, req.Destination, classifyLookup(err), err)
	}
	if !parentInfo.IsDir() {
		return nil, newPathError(op, req.Destination, KindNotFound, errParentNotDir)
	}

	if plan.Source != nil {
		if dst.Path == plan.Source.Path {
			return nil, newPathError(op, req.Destination, KindConflict, errSameAsSource)
		}
		if plan.SourceIsDir && withinRoot(dst.Path, plan.Source.Path) {
			return nil, newPathError(op, req.Destination, KindTypeMismatch, errIntoItself)
		}
	}

	dstInfo, err := v.fs.Lstat(dst.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return plan, nil
	case err != nil:
		return nil, newPathError(op, req.Destination, classifyLookup(err), err)
	}

	// Destination exists.
	switch {
	case req.Overwrite && pol.allowOverwrite && plan.Source != nil &&
		!plan.SourceIsDir && !dstInfo.IsDir():
		plan.Overwrite = true
	case req.Merge && pol.allowMerge && (req.Kind == OpCopy || req.Kind == OpMove) &&
		plan.SourceIsDir && dstInfo.IsDir():
		plan.Merge = true
	default:
		return nil, newPathError(op, req.Destination, KindConflict, errDestinationExists)
	}

	return plan, nil
}
