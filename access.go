package sandbox

import (
	"path/filepath"
	"strings"

	"github.com/igor-makarov/pi-extension-sandbox/internal/pathutil"
)

// Rules is the set of path rule lists consulted for access decisions.
// Order within each list is irrelevant: any match triggers the rule.
type Rules struct {
	// DenyRead lists patterns whose matches must never be read.
	DenyRead []string

	// AllowWrite lists patterns a write target must match when the list is
	// non-empty. An empty list leaves writes unrestricted.
	AllowWrite []string

	// DenyWrite lists patterns whose matches must never be written.
	// Deny takes precedence over AllowWrite.
	DenyWrite []string
}

// IsReadAllowed reports whether the path may be read under the rules.
// Reads are allowed unless the path matches a DenyRead pattern; an empty
// DenyRead list permits every read.
func IsReadAllowed(path, cwd string, rules Rules) bool {
	return isReadAllowed(path, cwd, homeDir(), rules)
}

func isReadAllowed(path, cwd, home string, rules Rules) bool {
	return !matchesAny(path, cwd, home, rules.DenyRead)
}

// IsWriteAllowed reports whether the path may be written under the rules.
// A DenyWrite match denies unconditionally. Otherwise, when AllowWrite is
// non-empty the path must match at least one of its patterns.
func IsWriteAllowed(path, cwd string, rules Rules) bool {
	return isWriteAllowed(path, cwd, homeDir(), rules)
}

func isWriteAllowed(path, cwd, home string, rules Rules) bool {
	if matchesAny(path, cwd, home, rules.DenyWrite) {
		return false
	}
	if len(rules.AllowWrite) == 0 {
		return true
	}
	return matchesAny(path, cwd, home, rules.AllowWrite)
}

// matchesAny resolves the candidate path to absolute form and reports
// whether any pattern in the list matches it.
func matchesAny(path, cwd, home string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	resolved := resolvePath(path, cwd, home)
	for _, pattern := range patterns {
		if matchesPath(resolved, pattern, cwd, home) {
			return true
		}
	}
	return false
}

// resolvePath expands "~" in a candidate path and makes it absolute
// against cwd.
func resolvePath(path, cwd, home string) string {
	path = strings.TrimSpace(path)
	path = pathutil.ExpandUser(path, home)
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	return filepath.Clean(path)
}
