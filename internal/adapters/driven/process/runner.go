// Package process runs external commands for the worker client and the
// PDF extractor.
package process

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Ensure ExecRunner implements the interface.
var _ driven.CommandRunner = (*ExecRunner)(nil)

// DefaultWaitDelay bounds how long Run waits for output pipes after the
// context kills the process.
const DefaultWaitDelay = 2 * time.Second

// ExecRunner runs commands with os/exec, capturing stdout and stderr.
type ExecRunner struct {
	// Env is appended to the inherited environment when set.
	Env []string

	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
}

// NewExecRunner creates a runner that inherits the current environment.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes name with args. A non-zero exit is reported in ExitCode
// with a nil error. Launch failures and context expiry return an error
// together with whatever output was captured.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (driven.CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	cmd.WaitDelay = DefaultWaitDelay
	if r.WaitDelay > 0 {
		cmd.WaitDelay = r.WaitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := driven.CommandResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		res.ExitCode = -1
		return res, err
	}
	return res, nil
}
