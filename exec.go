package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/igor-makarov/pi-extension-sandbox/internal/envutil"
)

// OutputStream identifies which stream an output chunk came from.
type OutputStream int

const (
	// StreamStdout is the child's standard output.
	StreamStdout OutputStream = iota

	// StreamStderr is the child's standard error.
	StreamStderr
)

// String returns the string representation of an OutputStream.
func (s OutputStream) String() string {
	switch s {
	case StreamStdout:
		return "stdout"
	case StreamStderr:
		return "stderr"
	default:
		return unknownStr
	}
}

// OutputChunk is one increment of child process output, delivered as it
// arrives rather than after the process exits.
type OutputChunk struct {
	// Stream identifies the source stream.
	Stream OutputStream

	// Data is the raw chunk text.
	Data string
}

// ExecOptions configures a single Execute call.
type ExecOptions struct {
	// WorkingDir is the working directory for the command. It must exist;
	// Execute fails with *DirectoryNotFoundError before spawning otherwise.
	// Empty means inherit the current process's working directory.
	WorkingDir string

	// Timeout, when > 0, bounds the execution. On expiry the entire process
	// group is killed and Execute returns a *TimeoutError.
	Timeout time.Duration

	// OnOutput, when non-nil, receives stdout/stderr chunks incrementally.
	// Invocations are serialized; the callback never runs concurrently
	// with itself.
	OnOutput func(OutputChunk)

	// Env lists extra KEY=VALUE entries overlaid on the inherited
	// environment.
	Env []string

	// MaxOutputBytes overrides the session's accumulated-output cap for
	// this call when > 0. A negative value disables the cap. Streaming via
	// OnOutput is never capped.
	MaxOutputBytes int

	// Pty runs the command under a pseudo-terminal with stdout and stderr
	// merged into a single stream.
	Pty bool

	// Unsandboxed skips sandbox wrapping for this call regardless of
	// policy, for callers that already obtained an escalation approval.
	Unsandboxed bool
}

// ExecResult holds the outcome of a completed command execution.
type ExecResult struct {
	// ExitCode is the process exit code, or -1 if the process was
	// terminated by a signal (see Signal).
	ExitCode int

	// Signal names the signal that terminated the process, if any.
	Signal string

	// Stdout contains accumulated standard output, subject to the
	// output cap. Under a pty it carries the merged output.
	Stdout string

	// Stderr contains accumulated standard error, subject to the
	// output cap.
	Stderr string

	// Duration is the wall-clock time the process took.
	Duration time.Duration

	// Sandboxed indicates whether the command ran inside the sandbox.
	Sandboxed bool

	// Truncated indicates the accumulated output hit the configured cap.
	Truncated bool
}

// escalationHint is appended to annotated failures to point the caller at
// the unsandboxed retry path.
const escalationHint = "If the failure was caused by sandbox restrictions, retry the command with sandboxing disabled."

// Execute runs a shell command under supervision: the working directory is
// validated, sandbox wrapping is applied unless the command is bypassed,
// output streams incrementally to opts.OnOutput, and the configured timeout
// and the context's cancellation both terminate the entire process group.
//
// On normal exit Execute returns the result, including a nonzero exit code;
// a nonzero exit is not an error. The error paths are *DirectoryNotFoundError,
// *SpawnError, *TimeoutError, and *CanceledError, each terminal. Completion
// wins races against cancellation: if the process already exited, a late
// cancel or timeout does not change the outcome.
func (s *Session) Execute(ctx context.Context, command string, opts ExecOptions) (*ExecResult, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}

	if opts.WorkingDir != "" {
		info, err := os.Stat(opts.WorkingDir)
		if err != nil || !info.IsDir() {
			return nil, &DirectoryNotFoundError{Dir: opts.WorkingDir}
		}
	}

	sandboxed := s.active && !opts.Unsandboxed && !s.ShouldBypass(command)
	run := command
	if sandboxed {
		wrapped, err := s.mech.WrapCommand(ctx, command)
		if err != nil {
			return nil, &SpawnError{Command: command, Cause: err}
		}
		run = wrapped
	}

	execCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeoutCause(ctx, opts.Timeout,
			&TimeoutError{Limit: opts.Timeout, Signal: killSignalName})
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, s.shell, "-c", run)
	cmd.Dir = opts.WorkingDir
	cmd.Env = buildEnv(opts.Env)

	var emitMu sync.Mutex
	emit := func(chunk OutputChunk) {
		if opts.OnOutput == nil || chunk.Data == "" {
			return
		}
		emitMu.Lock()
		opts.OnOutput(chunk)
		emitMu.Unlock()
	}

	limit := s.maxOutputBytes
	if opts.MaxOutputBytes > 0 {
		limit = opts.MaxOutputBytes
	} else if opts.MaxOutputBytes < 0 {
		limit = 0
	}

	var result *ExecResult
	var err error
	if opts.Pty {
		result, err = runPty(cmd, emit, limit)
	} else {
		result, err = runPiped(cmd, emit, limit)
	}
	if err != nil {
		return nil, classifyRunError(execCtx, command, err)
	}

	// A signal death while our context had fired means the group kill was
	// ours: report timeout or cancellation instead of a completed result.
	if result.Signal != "" && execCtx.Err() != nil {
		if clsErr := classifyInterrupt(execCtx); clsErr != nil {
			return nil, clsErr
		}
	}

	result.Sandboxed = sandboxed
	if sandboxed && result.ExitCode != 0 {
		s.annotateFailure(ctx, command, result, emit)
	}
	return result, nil
}

// annotateFailure asks the mechanism to explain a sandboxed failure. Any
// diagnostics beyond the stderr already delivered are emitted as one extra
// stderr chunk, together with the escalation hint.
func (s *Session) annotateFailure(ctx context.Context, command string, result *ExecResult, emit func(OutputChunk)) {
	annotated := s.mech.AnnotateFailure(ctx, command, result.Stderr)
	if annotated == result.Stderr {
		return
	}
	extra := strings.TrimPrefix(annotated, result.Stderr)
	extra = strings.TrimPrefix(extra, "\n")
	extra += "\n" + escalationHint
	emit(OutputChunk{Stream: StreamStderr, Data: extra})
	if result.Stderr != "" && !strings.HasSuffix(result.Stderr, "\n") {
		result.Stderr += "\n"
	}
	result.Stderr += extra
}

// startError marks a failure from starting the process, before any child
// existed. It lets classifyRunError keep spawn failures distinct from
// interrupts even when the context fires at the same time.
type startError struct{ err error }

func (e *startError) Error() string { return e.err.Error() }

func (e *startError) Unwrap() error { return e.err }

// classifyRunError maps an error from the run path to the caller-visible
// terminal error. A start failure is a spawn error regardless of context
// state, unless the failure is the context error itself (the process was
// never attempted because the context had already fired).
func classifyRunError(ctx context.Context, command string, err error) error {
	var start *startError
	if errors.As(err, &start) && !errors.Is(start.err, ctx.Err()) {
		return &SpawnError{Command: command, Cause: start.err}
	}
	if clsErr := classifyInterrupt(ctx); clsErr != nil {
		return clsErr
	}
	return &SpawnError{Command: command, Cause: err}
}

// classifyInterrupt maps a fired execution context to the corresponding
// terminal error: the timeout cause if the deadline armed by Execute
// expired, a cancellation otherwise. Returns nil while the context is live.
func classifyInterrupt(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	var timeoutErr *TimeoutError
	if errors.As(context.Cause(ctx), &timeoutErr) {
		return timeoutErr
	}
	return &CanceledError{Signal: killSignalName}
}

// runPiped executes cmd with separate stdout/stderr pipes feeding the
// chunk writers, in its own process group.
func runPiped(cmd *exec.Cmd, emit func(OutputChunk), limit int) (*ExecResult, error) {
	var stdout, stderr bytes.Buffer
	outWriter := &chunkWriter{stream: StreamStdout, buf: &stdout, limit: limit, emit: emit}
	errWriter := &chunkWriter{stream: StreamStderr, buf: &stderr, limit: limit, emit: emit}
	cmd.Stdout = outWriter
	cmd.Stderr = errWriter

	setupProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &startError{err}
	}
	waitErr := cmd.Wait()
	duration := time.Since(start)

	exitCode, signal, err := exitStatus(waitErr)
	if err != nil {
		return nil, err
	}
	return &ExecResult{
		ExitCode:  exitCode,
		Signal:    signal,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Duration:  duration,
		Truncated: outWriter.truncated || errWriter.truncated,
	}, nil
}

// exitStatus extracts the exit code and terminating signal from a Wait
// error. A non-zero exit is not a Go error; any other Wait failure is.
func exitStatus(waitErr error) (exitCode int, signal string, err error) {
	if waitErr == nil {
		return 0, "", nil
	}
	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		return 0, "", waitErr
	}
	return exitErr.ExitCode(), exitSignal(exitErr), nil
}

// buildEnv merges per-call entries onto the inherited environment and
// strips variables that would let a child inject code into later commands.
func buildEnv(extra []string) []string {
	env := envutil.Merge(os.Environ(), extra)
	env = envutil.Remove(env, "BASH_ENV")
	env = envutil.Remove(env, "ENV")
	env = envutil.Remove(env, "LD_PRELOAD")
	env = envutil.RemovePrefix(env, "DYLD_")
	return env
}

// chunkWriter tees child output: every write is forwarded to emit
// immediately and accumulated into buf up to limit bytes. Writes never
// fail; hitting the cap only stops accumulation, not the process.
type chunkWriter struct {
	stream    OutputStream
	buf       *bytes.Buffer
	limit     int // 0 means unlimited
	truncated bool
	emit      func(OutputChunk)
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.emit(OutputChunk{Stream: w.stream, Data: string(p)})
	if w.limit > 0 {
		remaining := w.limit - w.buf.Len()
		if remaining <= 0 {
			w.truncated = true
			return len(p), nil
		}
		if len(p) > remaining {
			w.buf.Write(p[:remaining])
			w.truncated = true
			return len(p), nil
		}
	}
	w.buf.Write(p)
	return len(p), nil
}
