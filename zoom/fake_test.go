package zoom

import (
	"context"
	"sync"

	"markestedt/zoomdeck/platform"
)

// fakeRunner records commands and answers from a table
type fakeRunner struct {
	mu       sync.Mutex
	calls    []string
	results  map[string]platform.Result
	fallback platform.Result
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{results: make(map[string]platform.Result)}
}

func (f *fakeRunner) Run(ctx context.Context, command string) platform.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, command)
	if res, ok := f.results[command]; ok {
		return res
	}
	return f.fallback
}

func (f *fakeRunner) count(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == command {
			n++
		}
	}
	return n
}

var testCommands = Commands{
	Status: "status",
	Mute:   "mute",
	Video:  "video",
	Share:  "share",
	Focus:  "focus",
	Leave:  "leave",
}
