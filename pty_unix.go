//go:build darwin || linux

package sandbox

import (
	"bytes"
	"os/exec"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sync/errgroup"
)

// ptyReadBufSize is the read buffer size for draining the pty master.
const ptyReadBufSize = 32 * 1024

// runPty executes cmd under a pseudo-terminal. Stdout and stderr arrive
// merged on the pty master and are streamed as stdout chunks. The pty layer
// owns SysProcAttr (it needs Setsid plus a controlling terminal), so only
// the group kill is installed here; Setsid still puts the whole command
// tree into one killable group.
func runPty(cmd *exec.Cmd, emit func(OutputChunk), limit int) (*ExecResult, error) {
	var output bytes.Buffer
	writer := &chunkWriter{stream: StreamStdout, buf: &output, limit: limit, emit: emit}

	installGroupKill(cmd)

	start := time.Now()
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, &startError{err}
	}
	defer func() { _ = ptmx.Close() }()

	var g errgroup.Group
	g.Go(func() error {
		buf := make([]byte, ptyReadBufSize)
		for {
			n, readErr := ptmx.Read(buf)
			if n > 0 {
				_, _ = writer.Write(buf[:n])
			}
			if readErr != nil {
				// EIO when the child side closes is the normal end of stream.
				return nil
			}
		}
	})

	waitErr := cmd.Wait()
	_ = ptmx.Close() // unblocks the reader if a descendant kept the tty open
	_ = g.Wait()
	duration := time.Since(start)

	exitCode, signal, err := exitStatus(waitErr)
	if err != nil {
		return nil, err
	}
	return &ExecResult{
		ExitCode:  exitCode,
		Signal:    signal,
		Stdout:    output.String(),
		Duration:  duration,
		Truncated: writer.truncated,
	}, nil
}
