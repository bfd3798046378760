// Package exec runs a user-configured command for each timer cue, such as
// a sound player pointed at the cue's asset.
package exec

import (
	"context"
	"os/exec"
	"time"
)

// DefaultCommandTimeout bounds one cue command.
const DefaultCommandTimeout = 10 * time.Second

// CommandRunner abstracts command execution for dependency injection.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner executes real commands using os/exec.
type ExecRunner struct {
	timeout time.Duration
}

// NewExecRunner returns a runner that kills commands after timeout.
// Non-positive values use DefaultCommandTimeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &ExecRunner{timeout: timeout}
}

// Run executes a command and returns its combined output.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
