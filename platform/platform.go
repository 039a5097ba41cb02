package platform

import (
	"context"
	"time"
)

// DefaultShell interprets configured commands on macOS and Linux
const DefaultShell = "/bin/sh"

// Outcome classifies how an external command ended
type Outcome int

const (
	Success Outcome = iota
	NonZeroExit
	Timeout
	Canceled
	StartFailed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NonZeroExit:
		return "non-zero exit"
	case Timeout:
		return "timeout"
	case Canceled:
		return "canceled"
	case StartFailed:
		return "start failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one external command invocation.
// Output holds everything the command wrote to stdout, even when
// Outcome is not Success.
type Result struct {
	Outcome  Outcome
	Output   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	Err      error
}

// OK reports whether the command ran to completion with exit code 0
func (r Result) OK() bool {
	return r.Outcome == Success
}

// Runner executes external commands
type Runner interface {
	Run(ctx context.Context, command string) Result
}
