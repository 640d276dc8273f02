package access

import (
	"errors"
	"os"
	"path/filepath"
)

var errNotADirectory = errors.New("not a directory")

// ConversionRule rewrites one leading prefix of a raw path.
type ConversionRule struct {
	From string
	To   string
}

// PolicyOptions is the raw configuration a Policy is built from.
type PolicyOptions struct {
	AllowedPaths     []string
	Conversion       *ConversionRule
	MutationsEnabled bool
	AllowOverwrite   bool
	AllowMerge       bool
}

// Policy is an immutable snapshot of the allowlist and path rules.
// Build it with NewPolicy; never modify one that has been published.
type Policy struct {
	roots            []string
	conversion       *ConversionRule
	mutationsEnabled bool
	allowOverwrite   bool
	allowMerge       bool
}

// NewPolicy canonicalises every allowed path and returns the snapshot.
// Roots keep their configured order; duplicates are kept.
func NewPolicy(opts PolicyOptions) (*Policy, error) {
	roots := make([]string, 0, len(opts.AllowedPaths))
	for _, p := range opts.AllowedPaths {
		root, err := CanonicaliseRoot(p)
		if err != nil {
			return nil, err
		}
		roots = append(roots, root)
	}

	var rule *ConversionRule
	if opts.Conversion != nil && opts.Conversion.From != "" {
		r := *opts.Conversion
		rule = &r
	}

	return &Policy{
		roots:            roots,
		conversion:       rule,
		mutationsEnabled: opts.MutationsEnabled,
		allowOverwrite:   opts.AllowOverwrite,
		allowMerge:       opts.AllowMerge,
	}, nil
}

// CanonicaliseRoot makes root absolute, resolves its symlinks and requires
// the result to be an existing directory.
func CanonicaliseRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &RootError{Root: root, Cause: err}
	}

	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", &RootError{Root: absRoot, Cause: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &RootError{Root: resolved, Cause: err}
	}
	if !info.IsDir() {
		return "", &RootError{Root: resolved, Cause: errNotADirectory}
	}
	return resolved, nil
}

// Roots returns a copy of the canonical allowed roots in configured order.
func (p *Policy) Roots() []string {
	return append([]string(nil), p.roots...)
}

// Conversion returns the prefix rewrite rule, or nil.
func (p *Policy) Conversion() *ConversionRule {
	if p.conversion == nil {
		return nil
	}
	r := *p.conversion
	return &r
}

func (p *Policy) MutationsEnabled() bool { return p.mutationsEnabled }
func (p *Policy) AllowOverwrite() bool   { return p.allowOverwrite }
func (p *Policy) AllowMerge() bool       { return p.allowMerge }

// Source yields the policy snapshot in force for one call chain.
type Source interface {
	Current() *Policy
}

// Current lets a bare *Policy act as a fixed Source.
func (p *Policy) Current() *Policy { return p }
