package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait blocks on inherited pipes after the
// process has been killed
const waitDelay = time.Second

// ExecRunner runs commands through a shell, like popen(3) does
type ExecRunner struct {
	Shell   string
	Timeout time.Duration // zero means no bound
}

// NewExecRunner creates a runner using the given shell and timeout
func NewExecRunner(shell string, timeout time.Duration) *ExecRunner {
	if shell == "" {
		shell = DefaultShell
	}
	return &ExecRunner{
		Shell:   shell,
		Timeout: timeout,
	}
}

// Run executes command with "<shell> -c" and waits for it to finish
func (r *ExecRunner) Run(parent context.Context, command string) Result {
	ctx := parent
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Shell, "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{
			Outcome:  StartFailed,
			ExitCode: -1,
			Err:      fmt.Errorf("failed to start command: %w", err),
		}
	}

	err := cmd.Wait()
	res := Result{
		Output:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	res.Outcome, res.Err = r.classify(err, parent, ctx)
	return res
}

// classify maps the error from Wait to an outcome. A command that exited
// cleanly succeeded even if a deadline passed while it was finishing.
func (r *ExecRunner) classify(err error, parent, ctx context.Context) (Outcome, error) {
	switch {
	case err == nil:
		return Success, nil
	case errors.Is(parent.Err(), context.DeadlineExceeded):
		return Timeout, fmt.Errorf("command timed out: %w", parent.Err())
	case parent.Err() != nil:
		return Canceled, parent.Err()
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return Timeout, fmt.Errorf("command timed out after %s", r.Timeout)
	default:
		return NonZeroExit, err
	}
}
