package sandbox

import (
	"log/slog"
	"strings"
	"sync"
)

// Session is the per-agent-session policy handle. It is created once at
// session start, after attempting to initialize the platform sandbox
// mechanism, and is read by every tool-wrapping decision until Close.
//
// The policy snapshot is written exactly once, at construction; only the
// session-scoped unsandboxed-command approvals mutate afterwards, under the
// session lock. A Session is safe for concurrent use by multiple goroutines.
type Session struct {
	mu               sync.Mutex
	closed           bool
	sessionApprovals map[string]struct{}

	policy         Policy
	rules          Rules
	active         bool
	mech           Mechanism
	shell          string
	maxOutputBytes int
	logger         *slog.Logger
}

// NewSession creates a Session from the given configuration. The
// configuration is validated and deep-copied, so later mutations by the
// caller have no effect. A nil cfg uses DefaultConfig().
//
// Sandboxing is active only when the policy requests it and the mechanism
// reports itself available; otherwise commands execute unwrapped and a
// warning is logged.
func NewSession(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.clone()

	mech := cfg.Mechanism
	if mech == nil {
		mech = NewNopMechanism()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	shell := cfg.Shell
	if shell == "" {
		shell = defaultShell
	}

	active := cfg.Policy.IsEnabled() && mech.Available()
	if cfg.Policy.IsEnabled() && !active {
		logger.Warn("sandbox: mechanism unavailable, commands will run unsandboxed",
			"mechanism", mech.Name())
	}

	return &Session{
		sessionApprovals: make(map[string]struct{}),
		policy:           cfg.Policy,
		rules:            cfg.Policy.Rules(),
		active:           active,
		mech:             mech,
		shell:            shell,
		maxOutputBytes:   cfg.MaxOutputBytes,
		logger:           logger,
	}, nil
}

// Active reports whether command sandboxing is in effect for this session.
func (s *Session) Active() bool {
	return s.active
}

// Policy returns a copy of the session's policy snapshot.
func (s *Session) Policy() Policy {
	return MergePolicy(Policy{}, s.policy)
}

// IsReadAllowed reports whether the path may be read under the session policy.
func (s *Session) IsReadAllowed(path, cwd string) bool {
	return IsReadAllowed(path, cwd, s.rules)
}

// IsWriteAllowed reports whether the path may be written under the session policy.
func (s *Session) IsWriteAllowed(path, cwd string) bool {
	return IsWriteAllowed(path, cwd, s.rules)
}

// CheckRead returns nil if the path may be read, or an *AccessDeniedError
// naming the path and the read rule category.
func (s *Session) CheckRead(path, cwd string) error {
	if s.IsReadAllowed(path, cwd) {
		return nil
	}
	return &AccessDeniedError{Path: path, Op: OpRead}
}

// CheckWrite returns nil if the path may be written, or an
// *AccessDeniedError naming the path and the write rule category.
func (s *Session) CheckWrite(path, cwd string) error {
	if s.IsWriteAllowed(path, cwd) {
		return nil
	}
	return &AccessDeniedError{Path: path, Op: OpWrite}
}

// ShouldBypass reports whether the command may run without sandbox wrapping,
// either because it matches a configured bypass pattern or because the user
// approved it for this session via AllowUnsandboxed.
func (s *Session) ShouldBypass(command string) bool {
	s.mu.Lock()
	_, approved := s.sessionApprovals[normalizeCommand(command)]
	s.mu.Unlock()
	if approved {
		return true
	}
	return IsUnsandboxedCommand(command, s.policy.UnsandboxedCommands)
}

// AllowUnsandboxed records a user approval: the exact command (modulo
// whitespace) may run unsandboxed for the remainder of the session.
func (s *Session) AllowUnsandboxed(command string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.sessionApprovals[normalizeCommand(command)] = struct{}{}
}

// Close releases the session. Subsequent Execute calls return
// ErrSessionClosed; pure decision methods keep working on the snapshot.
// Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// isClosed reports whether Close has been called.
func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// normalizeCommand collapses runs of whitespace so that trivially
// reformatted commands share one approval entry.
func normalizeCommand(command string) string {
	return strings.Join(strings.Fields(command), " ")
}
