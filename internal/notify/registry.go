package notify

import "sync"

// Registry hands out one Guard per user for the life of the process.
type Registry struct {
	mu      sync.Mutex
	opts    Options
	sinkFor func(userID string) Sink
	guards  map[string]*Guard
}

// NewRegistry builds guards lazily, asking sinkFor for each user's sink.
func NewRegistry(opts Options, sinkFor func(userID string) Sink) *Registry {
	return &Registry{opts: opts, sinkFor: sinkFor, guards: make(map[string]*Guard)}
}

// For returns the user's guard, creating it on first use.
func (r *Registry) For(userID string) *Guard {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.guards[userID]; ok {
		return g
	}
	var sink Sink
	if r.sinkFor != nil {
		sink = r.sinkFor(userID)
	}
	g := NewGuard(sink, r.opts)
	r.guards[userID] = g
	return g
}
