package sandbox

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by the sandbox package.
var (
	// ErrAccessDenied indicates a path operation was blocked by policy.
	ErrAccessDenied = errors.New("sandbox: access denied by policy")

	// ErrDirectoryNotFound indicates the requested working directory does not exist.
	ErrDirectoryNotFound = errors.New("sandbox: working directory not found")

	// ErrTimeout indicates a command was killed after exceeding its time budget.
	ErrTimeout = errors.New("sandbox: command timed out")

	// ErrCanceled indicates a command was aborted by the caller before completion.
	ErrCanceled = errors.New("sandbox: command canceled")

	// ErrSpawn indicates the command process could not be started.
	ErrSpawn = errors.New("sandbox: failed to start command")

	// ErrSessionClosed indicates the session has already been closed.
	ErrSessionClosed = errors.New("sandbox: session already closed")

	// ErrConfigInvalid indicates the provided configuration failed validation.
	ErrConfigInvalid = errors.New("sandbox: invalid configuration")
)

// AccessOp identifies the category of a path operation.
type AccessOp int

const (
	// OpRead is a filesystem read.
	OpRead AccessOp = iota

	// OpWrite is a filesystem write.
	OpWrite
)

// String returns the string representation of an AccessOp.
func (op AccessOp) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return unknownStr
	}
}

// AccessDeniedError is returned when a path operation is blocked by policy.
// It wraps ErrAccessDenied so that errors.Is(err, ErrAccessDenied) still works.
// A denied operation is recoverable: the caller may prompt the user for an
// escalation and retry.
type AccessDeniedError struct {
	// Path is the path that was blocked.
	Path string
	// Op is the operation category (read or write) whose rule list matched.
	Op AccessOp
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("%s: %s of %q blocked by %s rules", ErrAccessDenied.Error(), e.Op, e.Path, e.Op)
}

func (e *AccessDeniedError) Unwrap() error {
	return ErrAccessDenied
}

// DirectoryNotFoundError is returned when Execute is asked to run in a
// working directory that does not exist. No process is spawned.
type DirectoryNotFoundError struct {
	// Dir is the directory that was not found.
	Dir string
}

func (e *DirectoryNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDirectoryNotFound.Error(), e.Dir)
}

func (e *DirectoryNotFoundError) Unwrap() error {
	return ErrDirectoryNotFound
}

// TimeoutError is returned when a command exceeds its configured time budget
// and its process group is forcibly terminated.
type TimeoutError struct {
	// Limit is the configured timeout that was exceeded.
	Limit time.Duration
	// Signal is the signal used to terminate the process group.
	Signal string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s after %s (process group killed with %s)", ErrTimeout.Error(), e.Limit, e.Signal)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// CanceledError is returned when the caller cancels an execution before the
// process exits. It is distinct from TimeoutError so that callers can tell
// user intent apart from a resource guard.
type CanceledError struct {
	// Signal is the signal used to terminate the process group.
	Signal string
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("%s (process group killed with %s)", ErrCanceled.Error(), e.Signal)
}

func (e *CanceledError) Unwrap() error {
	return ErrCanceled
}

// SpawnError is returned when the OS fails to start the command process.
type SpawnError struct {
	// Command is the command that could not be started.
	Command string
	// Cause is the underlying OS error.
	Cause error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s: %v", ErrSpawn.Error(), e.Cause)
}

func (e *SpawnError) Unwrap() []error {
	return []error{ErrSpawn, e.Cause}
}
