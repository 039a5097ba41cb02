package registry

import (
	"sort"
	"sync"
)

// ButtonRef ties an action identifier to the on-device button showing it
type ButtonRef struct {
	Action  string `json:"action"`
	Context string `json:"context"`
}

// Registry tracks the buttons currently visible on the device.
//
// Buttons are keyed by action identifier, so when two buttons share an
// action the one that appeared last wins and either one disappearing
// drops the entry. Visible contexts are tracked separately.
type Registry struct {
	mu      sync.Mutex
	buttons map[string]ButtonRef
	visible map[string]struct{}
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		buttons: make(map[string]ButtonRef),
		visible: make(map[string]struct{}),
	}
}

// Upsert records that a button for action appeared with the given context
func (r *Registry) Upsert(action, context string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buttons[action] = ButtonRef{Action: action, Context: context}
	r.visible[context] = struct{}{}
}

// Remove forgets context and the entry for action, whichever context it holds
func (r *Registry) Remove(action, context string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.visible, context)
	delete(r.buttons, action)
}

// Lookup returns the button registered for action
func (r *Registry) Lookup(action string) (ButtonRef, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buttons[action]
	return b, ok
}

// Snapshot returns a copy of the registered buttons keyed by action
func (r *Registry) Snapshot() map[string]ButtonRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]ButtonRef, len(r.buttons))
	for k, v := range r.buttons {
		out[k] = v
	}
	return out
}

// Visible returns the contexts currently on screen, sorted
func (r *Registry) Visible() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.visible))
	for c := range r.visible {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered actions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buttons)
}
