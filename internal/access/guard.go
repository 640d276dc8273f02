package access

import (
	"os"
	"strings"
)

// Verdict is the outcome of checking one canonical path.
// A denied verdict never carries the canonical path.
type Verdict struct {
	Allowed       bool
	MatchedRoot   string
	CanonicalPath string
	Failure       FailureKind
}

// Check reports whether canonical equals or descends from one of roots,
// comparing at separator boundaries. The first matching root wins.
func Check(canonical string, roots []string) Verdict {
	for _, root := range roots {
		if withinRoot(canonical, root) {
			return Verdict{Allowed: true, MatchedRoot: root, CanonicalPath: canonical}
		}
	}
	return Verdict{Failure: KindDenied}
}

func withinRoot(path, root string) bool {
	if root == "" || !strings.HasPrefix(path, root) {
		return false
	}
	if len(path) == len(root) {
		return true
	}
	// A root that already ends in a separator (the filesystem root) matches
	// anything it prefixes.
	if os.IsPathSeparator(root[len(root)-1]) {
		return true
	}
	return os.IsPathSeparator(path[len(root)])
}
