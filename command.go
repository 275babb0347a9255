package sandbox

import (
	"slices"
	"strings"
)

// IsUnsandboxedCommand reports whether the command matches one of the
// configured bypass patterns and may therefore run without sandbox wrapping.
//
// Patterns come in two variants. An exact pattern matches only a command
// with the identical token sequence. A prefix pattern ends in a bare "*"
// token and matches any command sharing its fixed leading tokens, with
// unbounded trailing tokens. A compound command never matches any pattern.
//
// Patterns are evaluated in configuration order, but since matching is
// equality-based the order cannot change the outcome. Empty pattern strings
// are skipped; whitespace around commands and patterns is ignored.
func IsUnsandboxedCommand(command string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	tokens, compound := TokenizeCommand(command)
	if compound {
		return false
	}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		patternTokens, patternCompound := TokenizeCommand(pattern)
		if patternCompound || len(patternTokens) == 0 {
			continue
		}
		if matchTokens(tokens, patternTokens) {
			return true
		}
	}
	return false
}

// matchTokens compares a command token sequence against a pattern token
// sequence. A trailing bare "*" in the pattern makes it a prefix pattern.
func matchTokens(command, pattern []string) bool {
	if pattern[len(pattern)-1] == "*" {
		prefix := pattern[:len(pattern)-1]
		if len(command) < len(prefix) {
			return false
		}
		return slices.Equal(command[:len(prefix)], prefix)
	}
	return slices.Equal(command, pattern)
}
