package zoom

import (
	"context"
	"log/slog"

	"markestedt/zoomdeck/platform"
)

// DispatchResult describes what a key press did
type DispatchResult struct {
	Action  string
	Context string

	// Issued is false when no command is bound to the action
	Issued bool

	// Resynced is true when State holds a freshly probed value for
	// Context; only toggle actions resync
	Resynced bool
	State    int
	Status   Status
}

// Dispatcher turns key presses into Zoom control commands
type Dispatcher struct {
	runner   platform.Runner
	prober   *Prober
	commands Commands
}

// NewDispatcher creates a dispatcher. The status command in commands is
// used for the post-action resync.
func NewDispatcher(runner platform.Runner, commands Commands) *Dispatcher {
	return &Dispatcher{
		runner:   runner,
		prober:   NewProber(runner, commands.Status),
		commands: commands,
	}
}

// Prober returns the prober used for resyncs
func (d *Dispatcher) Prober() *Prober {
	return d.prober
}

// Dispatch runs the control command for action. observedState is the
// button state the host reported and only decides what gets logged; the
// command is sent regardless. Toggle actions are followed by a blocking
// probe whose result for that field is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, action, buttonContext string, observedState int) DispatchResult {
	result := DispatchResult{
		Action:  action,
		Context: buttonContext,
	}

	command := d.commands.For(action)
	if command == "" {
		slog.Warn("No command bound to action", "action", action)
		return result
	}

	logIntent(action, observedState)
	d.fire(ctx, action, command)
	result.Issued = true

	if !IsToggle(action) {
		return result
	}

	// Resync so the pressed button shows what Zoom actually did
	result.Status = d.prober.Status(ctx)
	result.State, _ = result.Status.State(action)
	result.Resynced = true

	slog.Debug("Resynced after action",
		"action", action,
		"context", buttonContext,
		"state", result.State,
	)

	return result
}

// fire runs a control command and only logs failures
func (d *Dispatcher) fire(ctx context.Context, action, command string) {
	res := d.runner.Run(ctx, command)
	if !res.OK() {
		slog.Warn("Control command failed",
			"action", action,
			"outcome", res.Outcome,
			"exit_code", res.ExitCode,
			"error", res.Err,
		)
	}
}

// logIntent logs which way a press is expected to flip the state
func logIntent(action string, state int) {
	switch action {
	case MuteToggle:
		if state != 0 {
			slog.Info("Unmuting Zoom")
		} else {
			slog.Info("Muting Zoom")
		}
	case VideoToggle:
		if state != 0 {
			slog.Info("Starting Zoom video")
		} else {
			slog.Info("Stopping Zoom video")
		}
	case ShareToggle:
		if state != 0 {
			slog.Info("Starting Zoom screen sharing")
		} else {
			slog.Info("Stopping Zoom screen sharing")
		}
	case Focus:
		slog.Info("Focusing Zoom window")
	case Leave:
		slog.Info("Leaving Zoom meeting")
	}
}
