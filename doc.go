// Package sandbox is the policy-enforcement layer that mediates filesystem
// access and command execution for an automated coding agent.
//
// It decides, before any OS-level action happens, whether a requested read,
// write, or shell command is permitted under a declarative policy, and it
// supervises the lifecycle of permitted shell executions (spawn, output
// streaming, timeout, cancellation, cleanup).
//
// Key features:
//   - Glob-based path rules with deny-read, allow-write, and deny-write lists
//   - Shell-aware command matching deciding which commands may skip sandboxing
//   - Supervised execution with process-group termination and timeouts
//   - Pluggable Mechanism interface for the platform sandbox backend
//
// Basic usage:
//
//	session, err := sandbox.NewSession(sandbox.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	if err := session.CheckRead("/home/user/.ssh/id_rsa", cwd); err != nil {
//	    // read blocked by policy
//	}
//
//	result, err := session.Execute(ctx, "npm test", sandbox.ExecOptions{
//	    WorkingDir: cwd,
//	    Timeout:    2 * time.Minute,
//	})
package sandbox
