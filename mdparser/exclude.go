package mdparser

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExcludedFile reports whether a file must be skipped by both tree walks
// and the transclusion resolution cache.
func ExcludedFile(relPath string) bool {
	if strings.HasSuffix(relPath, ".proposal") {
		return true
	}
	if ok, _ := doublestar.Match("**/*.rejected.md", relPath); ok {
		return true
	}
	if ok, _ := doublestar.Match("**/_Proposals/**", relPath); ok {
		return true
	}
	return false
}

// ExcludedDir reports whether a directory (by name, not path) must not be
// descended into.
func ExcludedDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "_Proposals"
}
