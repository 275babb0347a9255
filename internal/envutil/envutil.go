// Package envutil manipulates KEY=VALUE environment slices for child
// processes without mutating the inputs.
package envutil

import "strings"

// envKey returns the key portion of a KEY=VALUE entry.
func envKey(entry string) string {
	if idx := strings.IndexByte(entry, '='); idx >= 0 {
		return entry[:idx]
	}
	return entry
}

// Get returns the value for key in env, and whether it was present.
func Get(env []string, key string) (string, bool) {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return e[len(prefix):], true
		}
	}
	return "", false
}

// Remove returns a copy of env without any entry for key.
func Remove(env []string, key string) []string {
	result := make([]string, 0, len(env))
	for _, e := range env {
		if envKey(e) != key {
			result = append(result, e)
		}
	}
	return result
}

// RemovePrefix returns a copy of env without entries whose key starts with
// prefix. Used to strip loader-injection variables (LD_*, DYLD_*).
func RemovePrefix(env []string, prefix string) []string {
	result := make([]string, 0, len(env))
	for _, e := range env {
		if !strings.HasPrefix(envKey(e), prefix) {
			result = append(result, e)
		}
	}
	return result
}

// Merge overlays additional onto base and returns a new slice. Entries in
// additional replace base entries with the same key, in place; entries not
// present in base are appended in their original order.
func Merge(base, additional []string) []string {
	overrides := make(map[string]string, len(additional))
	order := make([]string, 0, len(additional))
	for _, e := range additional {
		key := envKey(e)
		if _, seen := overrides[key]; !seen {
			order = append(order, key)
		}
		overrides[key] = e
	}

	used := make(map[string]bool, len(overrides))
	result := make([]string, 0, len(base)+len(additional))
	for _, e := range base {
		if override, ok := overrides[envKey(e)]; ok {
			result = append(result, override)
			used[envKey(e)] = true
		} else {
			result = append(result, e)
		}
	}
	for _, key := range order {
		if !used[key] {
			result = append(result, overrides[key])
		}
	}
	return result
}
