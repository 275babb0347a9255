package sandbox

import "context"

// Mechanism is the platform sandbox backend a session wraps commands for.
// The mechanism itself (profile compilation, namespace or Seatbelt
// enforcement) lives outside this package; a session only needs these two
// transformations plus availability information.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Mechanism interface {
	// Name returns the backend name for logging (e.g. "seatbelt", "bwrap").
	Name() string

	// Available reports whether the backend is functional on this system.
	Available() bool

	// WrapCommand returns a command line that executes the raw command
	// inside the sandbox.
	WrapCommand(ctx context.Context, command string) (string, error)

	// AnnotateFailure returns stderr possibly augmented with sandbox
	// violation diagnostics for a failed command. Implementations may
	// return the input unchanged.
	AnnotateFailure(ctx context.Context, command, stderr string) string
}

// nopMechanism is a pass-through Mechanism used when no platform backend is
// configured. It reports itself unavailable, so sessions built on it run
// commands without sandbox wrapping.
type nopMechanism struct{}

// NewNopMechanism returns a Mechanism that performs no sandboxing. Useful
// for tests and for platforms without a sandbox backend.
func NewNopMechanism() Mechanism {
	return nopMechanism{}
}

func (nopMechanism) Name() string { return "nop" }

func (nopMechanism) Available() bool { return false }

func (nopMechanism) WrapCommand(_ context.Context, command string) (string, error) {
	return command, nil
}

func (nopMechanism) AnnotateFailure(_ context.Context, _, stderr string) string {
	return stderr
}
