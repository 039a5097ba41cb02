package main

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"markestedt/zoomdeck/config"
	"markestedt/zoomdeck/platform"
	"markestedt/zoomdeck/poller"
	"markestedt/zoomdeck/registry"
	"markestedt/zoomdeck/storage"
	"markestedt/zoomdeck/streamdeck"
	"markestedt/zoomdeck/web"
	"markestedt/zoomdeck/zoom"
)

// Host is the part of the Stream Deck connection the plugin writes to
type Host interface {
	SetState(buttonContext string, state int) error
	SendToPropertyInspector(action, buttonContext string, payload any) error
}

// Dashboard receives live updates for the local web UI
type Dashboard interface {
	BroadcastStatus(status zoom.Status)
	BroadcastAction(a *storage.ActionRecord)
}

// Compile-time interface checks.
var (
	_ streamdeck.Handler = (*Plugin)(nil)
	_ web.StatusSource   = (*Plugin)(nil)
)

// Plugin keeps Stream Deck buttons in sync with Zoom
type Plugin struct {
	// mu serializes poll ticks, key handling and registry changes, so a
	// slow command in one delays the others
	mu sync.Mutex

	cfg        *config.Config
	host       Host
	buttons    *registry.Registry
	prober     *zoom.Prober
	dispatcher *zoom.Dispatcher
	scheduler  *poller.Scheduler

	history   *storage.DB
	dashboard Dashboard

	statusMu sync.RWMutex
	last     zoom.Status
	lastAt   time.Time
	havePoll bool
}

// NewPlugin creates a plugin that runs commands with runner and pushes
// button states to host
func NewPlugin(cfg *config.Config, runner platform.Runner, host Host) *Plugin {
	commands := zoom.Commands{
		Status: cfg.Commands.Status,
		Mute:   cfg.Commands.Mute,
		Video:  cfg.Commands.Video,
		Share:  cfg.Commands.Share,
		Focus:  cfg.Commands.Focus,
		Leave:  cfg.Commands.Leave,
	}
	dispatcher := zoom.NewDispatcher(runner, commands)

	return &Plugin{
		cfg:        cfg,
		host:       host,
		buttons:    registry.New(),
		prober:     dispatcher.Prober(),
		dispatcher: dispatcher,
		scheduler:  poller.NewScheduler(),
	}
}

// SetHistory enables recording of key presses and status changes
func (p *Plugin) SetHistory(db *storage.DB) {
	p.history = db
}

// SetDashboard enables live updates to the web UI
func (p *Plugin) SetDashboard(d Dashboard) {
	p.dashboard = d
}

// Start begins polling Zoom's status
func (p *Plugin) Start(ctx context.Context) {
	interval := p.cfg.PollInterval()
	slog.Info("Starting status polling", "interval", interval)
	p.scheduler.Start(ctx, interval, p.refresh)
}

// Stop ends polling and waits for a running poll to finish
func (p *Plugin) Stop() {
	if !p.scheduler.Running() {
		return
	}
	p.scheduler.Stop()
	slog.Info("Status polling stopped")
}

// refresh probes Zoom once and pushes the state of every visible toggle button
func (p *Plugin) refresh(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := p.prober.Status(ctx)
	buttons := p.buttons.Snapshot()

	for _, action := range zoom.ToggleActions {
		button, ok := buttons[action]
		if !ok {
			continue
		}
		state, _ := status.State(action)
		if err := p.host.SetState(button.Context, state); err != nil {
			slog.Error("Failed to set button state", "action", action, "context", button.Context, "error", err)
		}
	}

	p.observe(status)
}

// observe stores status as the latest known one and records transitions
func (p *Plugin) observe(status zoom.Status) {
	p.statusMu.Lock()
	changed := !p.havePoll || status != p.last
	p.last = status
	p.lastAt = time.Now()
	p.havePoll = true
	p.statusMu.Unlock()

	if !changed {
		return
	}

	slog.Info("Zoom status changed",
		"open", status.Open,
		"muted", status.Muted,
		"video", status.Video,
		"share", status.Share,
	)

	if p.history != nil {
		change := &storage.StatusChange{
			Open:  status.Open,
			Muted: status.Muted,
			Video: status.Video,
			Share: status.Share,
		}
		if err := p.history.SaveStatusChange(change); err != nil {
			slog.Error("Failed to record status change", "error", err)
		}
	}
	if p.dashboard != nil {
		p.dashboard.BroadcastStatus(status)
	}
}

// Snapshot returns the latest status and visible buttons
func (p *Plugin) Snapshot() web.Snapshot {
	p.statusMu.RLock()
	snap := web.Snapshot{
		Status:   p.last,
		PolledAt: p.lastAt,
		Polling:  p.scheduler.Running(),
	}
	p.statusMu.RUnlock()

	for _, b := range p.buttons.Snapshot() {
		snap.Buttons = append(snap.Buttons, b)
	}
	sort.Slice(snap.Buttons, func(i, j int) bool {
		return snap.Buttons[i].Action < snap.Buttons[j].Action
	})
	snap.Visible = p.buttons.Visible()
	return snap
}

func (p *Plugin) KeyDown(ctx context.Context, ev streamdeck.Event) {
	slog.Debug("Key down", "action", ev.Action, "context", ev.Context)
}

// KeyUp runs the pressed action and, for toggles, pushes the resynced state
func (p *Plugin) KeyUp(ctx context.Context, ev streamdeck.Event) {
	payload, err := ev.KeyPayload()
	if err != nil {
		slog.Warn("Bad key payload", "action", ev.Action, "error", err)
	}
	slog.Debug("Key up", "action", ev.Action, "context", ev.Context, "state", payload.State, "desiredState", payload.UserDesiredState)

	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	res := p.dispatcher.Dispatch(ctx, ev.Action, ev.Context, payload.State)
	latency := time.Since(start)

	if res.Resynced {
		if err := p.host.SetState(res.Context, res.State); err != nil {
			slog.Error("Failed to set button state", "action", ev.Action, "context", res.Context, "error", err)
		}
		p.observe(res.Status)
	}

	if !res.Issued {
		return
	}

	record := &storage.ActionRecord{
		Timestamp:     start,
		Action:        ev.Action,
		Context:       ev.Context,
		Device:        ev.Device,
		ObservedState: payload.State,
		Issued:        res.Issued,
		Resynced:      res.Resynced,
		NewState:      res.State,
		LatencyMs:     latency.Milliseconds(),
	}
	if p.history != nil {
		if err := p.history.SaveAction(record); err != nil {
			slog.Error("Failed to record action", "action", ev.Action, "error", err)
		}
	}
	if p.dashboard != nil {
		p.dashboard.BroadcastAction(record)
	}
}

// WillAppear remembers the button context for the poll loop
func (p *Plugin) WillAppear(ctx context.Context, ev streamdeck.Event) {
	payload, err := ev.AppearPayload()
	if err != nil {
		slog.Warn("Bad appear payload", "action", ev.Action, "error", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.buttons.Upsert(ev.Action, ev.Context)
	slog.Debug("Button appeared",
		"action", ev.Action,
		"context", ev.Context,
		"device", ev.Device,
		"column", payload.Coordinates.Column,
		"row", payload.Coordinates.Row,
		"state", payload.State,
		"buttons", p.buttons.Len(),
	)
}

func (p *Plugin) WillDisappear(ctx context.Context, ev streamdeck.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.buttons.Lookup(ev.Action); ok && current.Context != ev.Context {
		slog.Debug("Disappearing context differs from registered one", "action", ev.Action, "context", ev.Context, "current", current.Context)
	}
	p.buttons.Remove(ev.Action, ev.Context)
	slog.Debug("Button disappeared", "action", ev.Action, "context", ev.Context, "device", ev.Device)
}

// DidReceiveSettings re-registers the button
func (p *Plugin) DidReceiveSettings(ctx context.Context, ev streamdeck.Event) {
	p.WillAppear(ctx, ev)
}

func (p *Plugin) DidReceiveGlobalSettings(ctx context.Context, ev streamdeck.Event) {
	slog.Debug("Received global settings", "payload", string(ev.Payload))
}

// SendToPlugin answers property inspector queries
func (p *Plugin) SendToPlugin(ctx context.Context, ev streamdeck.Event) {
	event := ev.PayloadField("event")
	slog.Debug("Received property inspector event", "event", event, "action", ev.Action)

	if event != "getDeviceList" {
		return
	}

	// Fixed reply the property inspector expects; not live status
	reply := map[string]string{
		"event":      event,
		"zoomStatus": "open",
		"muteStatus": "mutes",
	}
	if err := p.host.SendToPropertyInspector(ev.Action, ev.Context, reply); err != nil {
		slog.Error("Failed to reply to property inspector", "error", err)
	}
}

func (p *Plugin) DeviceDidConnect(ctx context.Context, ev streamdeck.Event) {
	info, err := ev.Info()
	if err != nil {
		slog.Warn("Bad device info", "device", ev.Device, "error", err)
		return
	}
	slog.Info("Device connected", "device", info.ID, "name", info.Name, "columns", info.Size.Columns, "rows", info.Size.Rows)
}

func (p *Plugin) DeviceDidDisconnect(ctx context.Context, ev streamdeck.Event) {
	slog.Info("Device disconnected", "device", ev.Device)
}
