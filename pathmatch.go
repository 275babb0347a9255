package sandbox

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/igor-makarov/pi-extension-sandbox/internal/pathutil"
)

// MatchesPath reports whether the absolute path matches the policy pattern.
// Relative patterns are resolved against cwd; "~" expands to the current
// user's home directory.
//
// Pattern forms:
//   - absolute path, "~"-relative path, "."/"./"-relative path, or a
//     relative path containing a separator (resolved against cwd);
//   - a pattern with no separator matches by basename anywhere in the tree;
//   - a pattern with no wildcard also matches everything nested beneath it;
//   - "*" and "?" never cross a path separator, "**" crosses any depth.
func MatchesPath(path, pattern, cwd string) bool {
	return matchesPath(path, pattern, cwd, homeDir())
}

// homeDir resolves the current user's home directory, falling back to the
// temp directory when it cannot be determined.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}

// matchesPath is the home-injectable form of MatchesPath used by tests.
func matchesPath(path, pattern, cwd, home string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || pathutil.ContainsNullByte(pattern) {
		return false
	}
	path = filepath.Clean(path)

	pattern = pathutil.ExpandUser(pattern, home)

	// A bare "." must resolve to cwd before the basename-mode decision, or
	// it would be taken for a file named ".".
	switch {
	case pattern == ".":
		pattern = cwd
	case strings.HasPrefix(pattern, "./"):
		pattern = filepath.Join(cwd, pattern[2:])
	}

	// A pattern with no separator matches by basename, ignoring directory
	// structure entirely.
	if !strings.ContainsRune(pattern, filepath.Separator) {
		return matchesBasename(path, pattern)
	}

	// Resolve remaining pattern relativity against cwd.
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(cwd, pattern)
	} else {
		pattern = filepath.Clean(pattern)
	}

	// A wildcard-free pattern denotes the path itself and everything nested
	// beneath it. The check is segment-aware, never a raw string prefix:
	// "~/.ssh-backup" must not match the pattern "~/.ssh".
	if !pathutil.HasGlobMeta(pattern) {
		return pathutil.IsPathWithin(path, pattern)
	}

	return globMatch(pattern, path)
}

// matchesBasename handles separator-free patterns. A wildcard pattern such
// as "*.pem" is compared against the candidate's final segment only. A
// wildcard-free pattern such as ".env" additionally matches anything nested
// below a directory of that name, mirroring the directory-prefix semantics
// of full-path patterns.
func matchesBasename(path, pattern string) bool {
	if !pathutil.HasGlobMeta(pattern) {
		for _, segment := range strings.Split(path, string(filepath.Separator)) {
			if segment == pattern {
				return true
			}
		}
		return false
	}
	return globMatch(pattern, filepath.Base(path))
}

// regexCache memoizes compiled glob patterns. Policy rule lists are small
// and static for the lifetime of a session, so the cache is unbounded.
var regexCache sync.Map // pattern string -> *regexp.Regexp

// globMatch compiles the glob pattern and matches it against the candidate.
// Patterns that fail to compile match nothing.
func globMatch(pattern, candidate string) bool {
	if cached, ok := regexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp).MatchString(candidate)
	}
	re, err := regexp.Compile(pathutil.GlobToRegex(pattern))
	if err != nil {
		return false
	}
	regexCache.Store(pattern, re)
	return re.MatchString(candidate)
}
