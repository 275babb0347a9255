//go:build darwin || linux

package sandbox

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// killSignalName is the signal reported by Timeout and Canceled errors.
	killSignalName = "SIGKILL"

	// pipeWaitDelay bounds how long Wait blocks on stdout/stderr pipes
	// after the process group has been killed, in case an orphaned
	// descendant still holds them open.
	pipeWaitDelay = 3 * time.Second
)

// setupProcessGroup configures cmd to run in its own session, so the child
// and every descendant it forks form one process group that can be
// terminated together, and installs the group kill as the context cancel
// action.
func setupProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	installGroupKill(cmd)
}

// installGroupKill arranges for context cancellation to SIGKILL the entire
// process group rather than only the tracked child. Used directly by the
// pty path, which must leave SysProcAttr to the pty layer.
func installGroupKill(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return killProcessGroup(cmd)
	}
	cmd.WaitDelay = pipeWaitDelay
}

// killProcessGroup kills cmd's process group. Termination is idempotent: a
// group that already exited reports os.ErrProcessDone rather than a
// caller-visible error. kill(-1) would target every process of the user and
// kill(0) the caller's own group, so non-positive pids are treated as
// already done. Any other group-kill failure falls back to terminating just
// the tracked child handle.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return os.ErrProcessDone
	}
	pid := cmd.Process.Pid
	if pid <= 1 {
		return os.ErrProcessDone
	}
	err := unix.Kill(-pid, unix.SIGKILL)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}
	return cmd.Process.Kill()
}

// exitSignal returns the name of the signal that terminated the process,
// or "" if it exited on its own.
func exitSignal(exitErr *exec.ExitError) string {
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return ""
	}
	return unix.SignalName(status.Signal())
}
