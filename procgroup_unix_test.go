//go:build darwin || linux

package sandbox

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestKillProcessGroupNoProcess(t *testing.T) {
	cmd := exec.Command("true")
	if err := killProcessGroup(cmd); !errors.Is(err, os.ErrProcessDone) {
		t.Errorf("killProcessGroup(unstarted) = %v, want os.ErrProcessDone", err)
	}
}

func TestKillProcessGroupIdempotent(t *testing.T) {
	// Cancel may only be set on a command built with CommandContext.
	cmd := exec.CommandContext(context.Background(), "sleep", "30")
	setupProcessGroup(cmd)
	if err := cmd.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if err := killProcessGroup(cmd); err != nil {
		t.Errorf("first killProcessGroup() = %v", err)
	}
	cmd.Wait()
	if err := killProcessGroup(cmd); !errors.Is(err, os.ErrProcessDone) {
		t.Errorf("second killProcessGroup() = %v, want os.ErrProcessDone", err)
	}
}

// TestTimeoutKillsDescendants verifies that a timeout terminates the whole
// process group: the shell's grandchild must be gone after Execute returns,
// not just the shell itself.
func TestTimeoutKillsDescendants(t *testing.T) {
	s := newTestSession(t, &Config{})

	var mu sync.Mutex
	var out strings.Builder
	_, err := s.Execute(context.Background(), "echo $$; sleep 30", ExecOptions{
		Timeout: 200 * time.Millisecond,
		OnOutput: func(chunk OutputChunk) {
			if chunk.Stream == StreamStdout {
				mu.Lock()
				out.WriteString(chunk.Data)
				mu.Unlock()
			}
		},
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() error = %v, want ErrTimeout", err)
	}

	mu.Lock()
	pidStr := strings.TrimSpace(out.String())
	mu.Unlock()
	pid, convErr := strconv.Atoi(pidStr)
	if convErr != nil {
		t.Fatalf("could not parse shell pid from output %q: %v", pidStr, convErr)
	}

	// Signal 0 probes existence. Allow a moment for the kernel to reap.
	deadline := time.Now().Add(2 * time.Second)
	for {
		killErr := unix.Kill(pid, 0)
		if errors.Is(killErr, unix.ESRCH) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("process %d still alive after timeout kill (kill(0) = %v)", pid, killErr)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestExitSignal(t *testing.T) {
	cmd := exec.Command("sh", "-c", "kill -TERM $$")
	err := cmd.Run()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *exec.ExitError", err)
	}
	if got := exitSignal(exitErr); got != "SIGTERM" {
		t.Errorf("exitSignal() = %q, want SIGTERM", got)
	}
}

func TestExitSignalNormalExit(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 3")
	err := cmd.Run()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *exec.ExitError", err)
	}
	if got := exitSignal(exitErr); got != "" {
		t.Errorf("exitSignal() = %q, want empty for a normal exit", got)
	}
}
