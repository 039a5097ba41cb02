package zoom

import (
	"context"
	"log/slog"

	"markestedt/zoomdeck/platform"
)

// Prober reads Zoom's state by running the status command
type Prober struct {
	runner  platform.Runner
	command string
}

// NewProber creates a prober for the given status command
func NewProber(runner platform.Runner, command string) *Prober {
	return &Prober{
		runner:  runner,
		command: command,
	}
}

// Probe runs the status command and returns its stdout. ok is false when
// the command could not be started, timed out or was canceled. A
// non-zero exit is logged and its output is still returned.
func (p *Prober) Probe(ctx context.Context) (output string, ok bool) {
	res := p.runner.Run(ctx, p.command)

	switch res.Outcome {
	case platform.Success:
		return res.Output, true
	case platform.NonZeroExit:
		slog.Warn("Status command exited with error",
			"exit_code", res.ExitCode,
			"stderr", res.Stderr,
			"error", res.Err,
		)
		return res.Output, true
	default:
		slog.Error("Status command failed",
			"outcome", res.Outcome,
			"error", res.Err,
		)
		return "", false
	}
}

// Status probes and parses in one step. A failed probe parses as the
// empty string.
func (p *Prober) Status(ctx context.Context) Status {
	raw, _ := p.Probe(ctx)
	slog.Debug("Zoom status", "raw", raw)
	return Parse(raw)
}
