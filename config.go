package sandbox

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/igor-makarov/pi-extension-sandbox/internal/pathutil"
)

const (
	// unknownStr is the string representation for unknown enum values.
	unknownStr = "unknown"

	// defaultMaxOutputBytes is the default cap for accumulated stdout/stderr (10 MB).
	defaultMaxOutputBytes = 10 * 1024 * 1024

	// defaultShell is the shell used for command execution when none is configured.
	defaultShell = "/bin/sh"
)

// FilesystemPolicy defines the path rule lists for access decisions.
// Absent fields behave as empty lists.
type FilesystemPolicy struct {
	// DenyRead lists patterns whose matches must never be read.
	DenyRead []string `json:"denyRead,omitempty" yaml:"denyRead,omitempty"`

	// AllowWrite restricts writes to matching paths when non-empty.
	AllowWrite []string `json:"allowWrite,omitempty" yaml:"allowWrite,omitempty"`

	// DenyWrite lists patterns whose matches must never be written.
	DenyWrite []string `json:"denyWrite,omitempty" yaml:"denyWrite,omitempty"`
}

// Policy is the declarative input controlling sandbox behavior for a session.
type Policy struct {
	// Enabled controls whether command sandboxing is requested. Nil means
	// enabled; the tri-state lets an overlay document leave the base value
	// untouched.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// UnsandboxedCommands lists command bypass patterns. A command matching
	// one of these runs without sandbox wrapping.
	UnsandboxedCommands []string `json:"unsandboxedCommands,omitempty" yaml:"unsandboxedCommands,omitempty"`

	// Filesystem defines the path rule lists.
	Filesystem FilesystemPolicy `json:"filesystem,omitempty" yaml:"filesystem,omitempty"`
}

// IsEnabled reports whether sandboxing is requested by the policy.
func (p Policy) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// Rules returns the policy's path rule lists as a Rules value.
func (p Policy) Rules() Rules {
	return Rules{
		DenyRead:   p.Filesystem.DenyRead,
		AllowWrite: p.Filesystem.AllowWrite,
		DenyWrite:  p.Filesystem.DenyWrite,
	}
}

// MergePolicy overlays one policy onto another, field by field, and returns
// the result. A non-nil Enabled in the overlay replaces the base value; a
// non-nil list in the overlay replaces the corresponding base list wholesale.
// The result shares no memory with either input.
func MergePolicy(base, overlay Policy) Policy {
	var merged Policy
	merged.Enabled = mergeFlag(base.Enabled, overlay.Enabled)
	merged.UnsandboxedCommands = mergeList(base.UnsandboxedCommands, overlay.UnsandboxedCommands)
	merged.Filesystem.DenyRead = mergeList(base.Filesystem.DenyRead, overlay.Filesystem.DenyRead)
	merged.Filesystem.AllowWrite = mergeList(base.Filesystem.AllowWrite, overlay.Filesystem.AllowWrite)
	merged.Filesystem.DenyWrite = mergeList(base.Filesystem.DenyWrite, overlay.Filesystem.DenyWrite)
	return merged
}

// mergeFlag picks the overlay tri-state flag when set, copying so that the
// result does not alias either input.
func mergeFlag(base, overlay *bool) *bool {
	src := base
	if overlay != nil {
		src = overlay
	}
	if src == nil {
		return nil
	}
	v := *src
	return &v
}

// mergeList picks the overlay list when non-nil, copying the winner.
func mergeList(base, overlay []string) []string {
	src := base
	if overlay != nil {
		src = overlay
	}
	if src == nil {
		return nil
	}
	return append([]string(nil), src...)
}

// Config holds the complete configuration for a Session.
type Config struct {
	// Policy is the declarative path and command policy.
	Policy Policy

	// Mechanism is the platform sandbox backend used to wrap commands and
	// annotate failures. If nil, NewNopMechanism() is used and command
	// sandboxing is inactive.
	Mechanism Mechanism

	// Shell is the path to the shell used for command execution.
	// If empty, defaultShell is used.
	Shell string

	// MaxOutputBytes caps accumulated stdout/stderr per execution.
	// 0 means no limit.
	MaxOutputBytes int

	// Logger is the structured logger for operational messages such as
	// fallback warnings and cleanup diagnostics. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with secure defaults: sandboxing enabled,
// common credential locations unreadable, and well-known secret file
// patterns unwritable.
func DefaultConfig() *Config {
	return &Config{
		Policy: Policy{
			Filesystem: FilesystemPolicy{
				DenyRead: []string{
					"~/.ssh",
					"~/.aws",
					"~/.gnupg",
					"~/.kube",
					"~/.netrc",
					"~/.git-credentials",
					"~/.config/gcloud",
				},
				DenyWrite: []string{
					".env",
					"*.pem",
					"*.key",
					"~/.bashrc",
					"~/.zshrc",
					"~/.profile",
					"~/.gitconfig",
				},
			},
		},
		MaxOutputBytes: defaultMaxOutputBytes,
	}
}

// Validate checks the configuration and returns a descriptive error if any
// field is invalid. The returned error wraps ErrConfigInvalid.
func (c *Config) Validate() error {
	var errs []string

	errs = validatePatternList(errs, "Policy.Filesystem.DenyRead", c.Policy.Filesystem.DenyRead)
	errs = validatePatternList(errs, "Policy.Filesystem.AllowWrite", c.Policy.Filesystem.AllowWrite)
	errs = validatePatternList(errs, "Policy.Filesystem.DenyWrite", c.Policy.Filesystem.DenyWrite)

	// Bypass patterns may be empty strings (skipped at match time) but must
	// not contain null bytes.
	for i, p := range c.Policy.UnsandboxedCommands {
		if pathutil.ContainsNullByte(p) {
			errs = append(errs, fmt.Sprintf("Policy.UnsandboxedCommands[%d]: must not contain null bytes", i))
		}
	}

	if c.Shell != "" && !filepath.IsAbs(c.Shell) {
		errs = append(errs, fmt.Sprintf("Shell: %q must be an absolute path", c.Shell))
	}
	if c.MaxOutputBytes < 0 {
		errs = append(errs, "MaxOutputBytes: must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// validatePatternList checks a path pattern list and appends any validation
// errors to errs.
func validatePatternList(errs []string, field string, patterns []string) []string {
	for i, p := range patterns {
		if p == "" {
			errs = append(errs, fmt.Sprintf("%s[%d]: must not be empty", field, i))
			continue
		}
		if pathutil.ContainsNullByte(p) {
			errs = append(errs, fmt.Sprintf("%s[%d]: must not contain null bytes", field, i))
		}
	}
	return errs
}

// clone returns a deep copy of the config so that later caller mutations
// cannot affect a running session.
func (c *Config) clone() *Config {
	cpy := *c
	cpy.Policy = MergePolicy(Policy{}, c.Policy)
	return &cpy
}
