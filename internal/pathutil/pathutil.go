// Package pathutil provides path helpers shared by the policy layer:
// home-directory expansion, glob-to-regex conversion, and segment-aware
// containment checks.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ExpandUser expands a leading "~" or "~/" in pattern to the given home
// directory. A bare "~" becomes home itself. Patterns referring to other
// users ("~bob/...") are returned unchanged.
func ExpandUser(pattern, home string) string {
	if pattern == "~" {
		return home
	}
	if strings.HasPrefix(pattern, "~/") {
		return filepath.Join(home, pattern[2:])
	}
	return pattern
}

// HasGlobMeta returns true if the string contains glob metacharacters.
func HasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// IsPathWithin reports whether path equals root or is nested below it.
// The check is segment-aware: "/tmp/foo-bar" is not within "/tmp/foo".
// Both arguments must already be cleaned absolute paths.
func IsPathWithin(path, root string) bool {
	if path == root {
		return true
	}
	if root == "/" {
		return strings.HasPrefix(path, "/")
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// GlobToRegex converts a glob pattern to an anchored regexp string.
// Supports: * (any run excluding separator), ** (any run including
// separators), ? (single non-separator character), [...] (character class).
// All other characters match literally; matching is case-sensitive.
func GlobToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	i := 0
	for i < len(pattern) {
		ch := pattern[i]
		switch ch {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				// ** crosses directory boundaries.
				i += 2
				if i < len(pattern) && pattern[i] == '/' {
					i++
				}
				if i >= len(pattern) {
					// Trailing ** swallows the rest of the path.
					b.WriteString(".*")
					continue
				}
				// Any prefix (possibly empty) ending at a segment boundary.
				b.WriteString("(?:.*/)?")
				continue
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '[':
			j := i + 1
			if j < len(pattern) && pattern[j] == ']' {
				j++ // a ] directly after [ is a literal member
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j < len(pattern) {
				b.WriteString(pattern[i : j+1])
				i = j + 1
				continue
			}
			// Unterminated class: treat [ literally.
			b.WriteString("\\[")
		case '.', '+', '^', '$', '|', '(', ')', '{', '}', ']', '\\':
			b.WriteByte('\\')
			b.WriteByte(ch)
		default:
			b.WriteByte(ch)
		}
		i++
	}
	b.WriteString("$")
	return b.String()
}

// ContainsNullByte returns true if the string contains a null byte.
// Null bytes in paths or patterns are always a configuration error.
func ContainsNullByte(s string) bool {
	return strings.ContainsRune(s, '\x00')
}
