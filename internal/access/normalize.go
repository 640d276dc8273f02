package access

import (
	"path"
	"path/filepath"
	"strings"
)

// Normalizer turns untrusted path strings into rooted, traversal-free paths.
// It never touches the filesystem.
type Normalizer struct {
	rule *ConversionRule
}

// NewNormalizer creates a normalizer; rule may be nil.
func NewNormalizer(rule *ConversionRule) *Normalizer {
	return &Normalizer{rule: rule}
}

// Normalize applies the conversion rule once, converts foreign separators,
// and lexically cleans the path. Leading ".." segments are clamped at the
// root and relative input is anchored at "/", so the result is always
// absolute. Empty input yields "/".
func (n *Normalizer) Normalize(raw string) string {
	p := raw
	if n.rule != nil && n.rule.From != "" && strings.HasPrefix(p, n.rule.From) {
		p = n.rule.To + p[len(n.rule.From):]
	}

	p = strings.ReplaceAll(p, `\`, "/")

	// Prefixing "/" before Clean clamps ".." at the root.
	p = path.Clean("/" + p)

	return filepath.FromSlash(p)
}
