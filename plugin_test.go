package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"markestedt/zoomdeck/config"
	"markestedt/zoomdeck/platform"
	"markestedt/zoomdeck/storage"
	"markestedt/zoomdeck/streamdeck"
	"markestedt/zoomdeck/zoom"
)

type push struct {
	context string
	state   int
}

type piReply struct {
	action  string
	context string
	payload any
}

// fakeHost records what the plugin sends to Stream Deck
type fakeHost struct {
	mu      sync.Mutex
	pushes  []push
	replies []piReply
}

func (h *fakeHost) SetState(buttonContext string, state int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushes = append(h.pushes, push{buttonContext, state})
	return nil
}

func (h *fakeHost) SendToPropertyInspector(action, buttonContext string, payload any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.replies = append(h.replies, piReply{action, buttonContext, payload})
	return nil
}

func (h *fakeHost) statesByContext() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]int)
	for _, p := range h.pushes {
		out[p.context] = p.state
	}
	return out
}

func (h *fakeHost) pushCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pushes)
}

// fakeRunner answers the status command with a settable output and
// flags any overlapping command runs
type fakeRunner struct {
	mu     sync.Mutex
	status string
	calls  map[string]int
	delay  time.Duration

	inFlight atomic.Int32
	overlap  atomic.Bool
}

func newFakeRunner(status string) *fakeRunner {
	return &fakeRunner{status: status, calls: make(map[string]int)}
}

func (f *fakeRunner) Run(ctx context.Context, command string) platform.Result {
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.inFlight.Add(-1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[command]++
	if command == "status" {
		return platform.Result{Outcome: platform.Success, Output: f.status}
	}
	return platform.Result{Outcome: platform.Success}
}

func (f *fakeRunner) setStatus(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

func (f *fakeRunner) count(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[command]
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Poll.IntervalMs = 10
	cfg.Commands.Status = "status"
	cfg.Commands.Mute = "mute"
	cfg.Commands.Video = "video"
	cfg.Commands.Share = "share"
	cfg.Commands.Focus = "focus"
	cfg.Commands.Leave = "leave"
	return cfg
}

func newTestPlugin(t *testing.T, status string) (*Plugin, *fakeRunner, *fakeHost) {
	t.Helper()
	runner := newFakeRunner(status)
	host := &fakeHost{}
	return NewPlugin(testConfig(t), runner, host), runner, host
}

func appear(p *Plugin, action, ctx string) {
	p.WillAppear(context.Background(), streamdeck.Event{Event: streamdeck.EventWillAppear, Action: action, Context: ctx})
}

func keyUp(p *Plugin, action, ctx string, state int) {
	payload, _ := json.Marshal(map[string]int{"state": state})
	p.KeyUp(context.Background(), streamdeck.Event{
		Event:   streamdeck.EventKeyUp,
		Action:  action,
		Context: ctx,
		Payload: payload,
	})
}

func registerToggles(p *Plugin) {
	appear(p, zoom.MuteToggle, "mute-ctx")
	appear(p, zoom.VideoToggle, "video-ctx")
	appear(p, zoom.ShareToggle, "share-ctx")
}

func TestRefreshPushesToggleStates(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]int
	}{
		{
			name: "open and muted",
			raw:  "zoom:open,mute:muted,video:stopped,share:stopped",
			want: map[string]int{"mute-ctx": 0, "video-ctx": 0, "share-ctx": 0},
		},
		{
			name: "empty output",
			raw:  "",
			want: map[string]int{"mute-ctx": 1, "video-ctx": 0, "share-ctx": 0},
		},
		{
			name: "everything on",
			raw:  "mute:unmuted,video:started,zoom:open,share:started",
			want: map[string]int{"mute-ctx": 1, "video-ctx": 1, "share-ctx": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, runner, host := newTestPlugin(t, tt.raw)
			registerToggles(p)
			appear(p, zoom.Focus, "focus-ctx")

			p.refresh(context.Background())

			if runner.count("status") != 1 {
				t.Errorf("probe ran %d times, want 1", runner.count("status"))
			}
			if host.pushCount() != 3 {
				t.Errorf("%d pushes, want 3", host.pushCount())
			}
			got := host.statesByContext()
			for ctx, want := range tt.want {
				if got[ctx] != want {
					t.Errorf("%s state = %d, want %d", ctx, got[ctx], want)
				}
			}
			if _, ok := got["focus-ctx"]; ok {
				t.Error("focus button should never get a state push")
			}
		})
	}
}

func TestRefreshEmptyRegistry(t *testing.T) {
	p, runner, host := newTestPlugin(t, "zoom:open")

	p.refresh(context.Background())

	if runner.count("status") != 1 {
		t.Errorf("probe ran %d times, want 1", runner.count("status"))
	}
	if host.pushCount() != 0 {
		t.Errorf("%d pushes, want 0", host.pushCount())
	}
}

func TestRefreshSkipsMissingButtons(t *testing.T) {
	p, _, host := newTestPlugin(t, "video:started")
	appear(p, zoom.VideoToggle, "v1")

	p.refresh(context.Background())

	got := host.statesByContext()
	if len(got) != 1 || got["v1"] != 1 {
		t.Errorf("pushes = %v, want only v1=1", got)
	}
}

func TestKeyUpMuteResyncs(t *testing.T) {
	p, runner, host := newTestPlugin(t, "mute:unmuted")
	appear(p, zoom.MuteToggle, "ctx1")

	keyUp(p, zoom.MuteToggle, "ctx1", 0)

	if runner.count("mute") != 1 || runner.count("status") != 1 {
		t.Errorf("calls = %v, want one mute and one status", runner.calls)
	}
	host.mu.Lock()
	defer host.mu.Unlock()
	if len(host.pushes) != 1 || host.pushes[0] != (push{"ctx1", 1}) {
		t.Errorf("pushes = %v, want [(ctx1, 1)]", host.pushes)
	}
}

func TestKeyUpFocusAndLeave(t *testing.T) {
	for _, tc := range []struct{ action, command string }{
		{zoom.Focus, "focus"},
		{zoom.Leave, "leave"},
	} {
		t.Run(tc.command, func(t *testing.T) {
			p, runner, host := newTestPlugin(t, "zoom:open")

			keyUp(p, tc.action, "ctx", 0)

			if runner.count(tc.command) != 1 {
				t.Errorf("%s ran %d times", tc.command, runner.count(tc.command))
			}
			if runner.count("status") != 0 {
				t.Errorf("status probed %d times, want 0", runner.count("status"))
			}
			if host.pushCount() != 0 {
				t.Errorf("%d pushes, want 0", host.pushCount())
			}
		})
	}
}

func TestWillDisappearStopsPushes(t *testing.T) {
	p, _, host := newTestPlugin(t, "zoom:open")
	appear(p, zoom.MuteToggle, "c1")
	appear(p, zoom.MuteToggle, "c2")

	p.refresh(context.Background())
	if got := host.statesByContext(); len(got) != 1 || got["c2"] != 1 {
		t.Fatalf("pushes = %v, want only the last-appeared c2", got)
	}

	p.WillDisappear(context.Background(), streamdeck.Event{Action: zoom.MuteToggle, Context: "c1"})
	before := host.pushCount()
	p.refresh(context.Background())
	if host.pushCount() != before {
		t.Error("mute still pushed after its entry was removed")
	}
}

func TestDidReceiveSettingsRegisters(t *testing.T) {
	p, _, host := newTestPlugin(t, "share:started")

	p.DidReceiveSettings(context.Background(), streamdeck.Event{Action: zoom.ShareToggle, Context: "s1"})
	p.refresh(context.Background())

	if got := host.statesByContext(); got["s1"] != 1 {
		t.Errorf("pushes = %v, want s1=1", got)
	}
}

func TestSendToPluginGetDeviceList(t *testing.T) {
	p, _, host := newTestPlugin(t, "")

	p.SendToPlugin(context.Background(), streamdeck.Event{
		Action:  zoom.MuteToggle,
		Context: "pi",
		Payload: json.RawMessage(`{"event":"getDeviceList"}`),
	})
	p.SendToPlugin(context.Background(), streamdeck.Event{
		Action:  zoom.MuteToggle,
		Context: "pi",
		Payload: json.RawMessage(`{"event":"somethingElse"}`),
	})

	host.mu.Lock()
	defer host.mu.Unlock()
	if len(host.replies) != 1 {
		t.Fatalf("%d replies, want 1", len(host.replies))
	}
	r := host.replies[0]
	want := map[string]string{"event": "getDeviceList", "zoomStatus": "open", "muteStatus": "mutes"}
	got, ok := r.payload.(map[string]string)
	if !ok || r.context != "pi" || r.action != zoom.MuteToggle {
		t.Fatalf("reply = %+v", r)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("reply[%s] = %q, want %q", k, got[k], v)
		}
	}
}

func TestKeyUpAndTicksDoNotOverlap(t *testing.T) {
	p, runner, _ := newTestPlugin(t, "zoom:open")
	runner.delay = time.Millisecond
	registerToggles(p)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.refresh(context.Background())
		}()
		go func() {
			defer wg.Done()
			keyUp(p, zoom.VideoToggle, "video-ctx", 1)
		}()
	}
	wg.Wait()

	if runner.overlap.Load() {
		t.Error("external commands ran concurrently")
	}
}

func TestStartPollsUntilStop(t *testing.T) {
	p, runner, host := newTestPlugin(t, "mute:muted")
	appear(p, zoom.MuteToggle, "m1")

	p.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for runner.count("status") < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()

	if runner.count("status") < 3 {
		t.Fatalf("polled %d times, want at least 3", runner.count("status"))
	}
	if got := host.statesByContext(); got["m1"] != 0 {
		t.Errorf("m1 state = %d, want 0 (muted)", got["m1"])
	}

	polled := runner.count("status")
	time.Sleep(30 * time.Millisecond)
	if runner.count("status") != polled {
		t.Error("polling continued after Stop")
	}
}

func TestHistoryRecordsChangesAndActions(t *testing.T) {
	p, runner, _ := newTestPlugin(t, "zoom:open,mute:muted")
	db, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	p.SetHistory(db)

	dash := &fakeDashboard{}
	p.SetDashboard(dash)

	appear(p, zoom.MuteToggle, "ctx1")
	p.refresh(context.Background())
	p.refresh(context.Background())

	if n, _ := db.GetStatusChangeCount(); n != 1 {
		t.Errorf("%d status changes after identical polls, want 1", n)
	}

	runner.setStatus("zoom:open,mute:unmuted")
	keyUp(p, zoom.MuteToggle, "ctx1", 0)

	if n, _ := db.GetStatusChangeCount(); n != 2 {
		t.Errorf("%d status changes after resync, want 2", n)
	}
	actions, err := db.GetActions(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 1 || actions[0].Action != zoom.MuteToggle || !actions[0].Resynced || actions[0].NewState != 1 {
		t.Errorf("actions = %+v", actions)
	}

	snap := p.Snapshot()
	if !snap.Status.Open || snap.Status.Muted {
		t.Errorf("snapshot status = %+v", snap.Status)
	}
	if len(snap.Buttons) != 1 || snap.Buttons[0].Context != "ctx1" {
		t.Errorf("snapshot buttons = %+v", snap.Buttons)
	}

	dash.mu.Lock()
	defer dash.mu.Unlock()
	if dash.statuses != 2 || dash.actions != 1 {
		t.Errorf("dashboard got %d statuses, %d actions", dash.statuses, dash.actions)
	}
}

type fakeDashboard struct {
	mu       sync.Mutex
	statuses int
	actions  int
	last     *storage.ActionRecord
}

func (d *fakeDashboard) BroadcastStatus(zoom.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses++
}

func (d *fakeDashboard) BroadcastAction(a *storage.ActionRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions++
	d.last = a
}

func (d *fakeDashboard) lastAction() *storage.ActionRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func TestKeyUpBroadcastsTimestampWithoutHistory(t *testing.T) {
	p, _, _ := newTestPlugin(t, "zoom:open,mute:muted")
	dash := &fakeDashboard{}
	p.SetDashboard(dash)
	appear(p, zoom.MuteToggle, "ctx1")

	before := time.Now()
	keyUp(p, zoom.MuteToggle, "ctx1", 0)

	a := dash.lastAction()
	if a == nil {
		t.Fatal("no action broadcast")
	}
	if a.Timestamp.IsZero() {
		t.Fatal("broadcast action has zero timestamp")
	}
	if a.Timestamp.Before(before.Add(-time.Second)) || a.Timestamp.After(time.Now()) {
		t.Errorf("timestamp = %v, want around %v", a.Timestamp, before)
	}
}

func TestWillAppearReadsPayload(t *testing.T) {
	p, _, host := newTestPlugin(t, "mute:muted")

	payload := []byte(`{"coordinates":{"column":2,"row":1},"state":1,"settings":{}}`)
	p.WillAppear(context.Background(), streamdeck.Event{
		Event:   streamdeck.EventWillAppear,
		Action:  zoom.MuteToggle,
		Context: "m1",
		Payload: payload,
	})
	// A malformed payload still registers the button
	p.WillAppear(context.Background(), streamdeck.Event{
		Event:   streamdeck.EventWillAppear,
		Action:  zoom.VideoToggle,
		Context: "v1",
		Payload: []byte(`{"coordinates":"nope"}`),
	})

	p.refresh(context.Background())
	got := host.statesByContext()
	if _, ok := got["m1"]; !ok {
		t.Error("m1 not pushed")
	}
	if _, ok := got["v1"]; !ok {
		t.Error("v1 not pushed after bad payload")
	}
}

func TestSnapshotReportsPolling(t *testing.T) {
	p, _, _ := newTestPlugin(t, "zoom:open")
	if p.Snapshot().Polling {
		t.Error("Polling = true before Start")
	}

	p.Start(context.Background())
	if !p.Snapshot().Polling {
		t.Error("Polling = false after Start")
	}

	p.Stop()
	if p.Snapshot().Polling {
		t.Error("Polling = true after Stop")
	}
	// Stopping twice is harmless
	p.Stop()
}
