package notify

import (
	"sync"
	"time"
)

// Sink renders a notification. It is only ever reached through a Guard.
type Sink interface {
	Show(title, description string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(title, description string)

// Show calls f.
func (f SinkFunc) Show(title, description string) { f(title, description) }

// State is the guard's throttling state.
type State string

const (
	StateIdle           State = "idle"
	StateCooldownActive State = "cooldown_active"
)

// Record is one delivered notification kept in the guard's history.
type Record struct {
	LogicalID   string    `json:"logicalId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// Options tune the guard's windows. Zero fields take the defaults.
type Options struct {
	Cooldown      time.Duration
	RecencyWindow time.Duration
	HistorySize   int
}

// DefaultOptions returns a 2s cooldown, a 10s title window and 20 history slots.
func DefaultOptions() Options {
	return Options{Cooldown: 2 * time.Second, RecencyWindow: 10 * time.Second, HistorySize: 20}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Cooldown <= 0 {
		o.Cooldown = def.Cooldown
	}
	if o.RecencyWindow <= 0 {
		o.RecencyWindow = def.RecencyWindow
	}
	if o.HistorySize <= 0 {
		o.HistorySize = def.HistorySize
	}
	return o
}

// Guard delivers each logical notification at most once for its lifetime,
// throttled by a global cooldown and a per-title recency window.
type Guard struct {
	mu            sync.Mutex
	sink          Sink
	opts          Options
	seen          map[string]struct{}
	lastByTitle   map[string]time.Time
	cooldownUntil time.Time
	recent        []Record
}

// NewGuard wraps sink. A nil sink drops deliveries but still records them.
func NewGuard(sink Sink, opts Options) *Guard {
	if sink == nil {
		sink = SinkFunc(func(string, string) {})
	}
	opts = opts.withDefaults()
	return &Guard{
		sink:        sink,
		opts:        opts,
		seen:        make(map[string]struct{}),
		lastByTitle: make(map[string]time.Time),
		recent:      make([]Record, 0, opts.HistorySize),
	}
}

// TryFire delivers the notification unless logicalID already fired, the
// cooldown is active, or the same title was delivered within the recency
// window. It reports whether the sink was called. Suppressed calls leave the
// cooldown untouched.
func (g *Guard) TryFire(logicalID, title, description string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[logicalID]; ok {
		return false
	}
	if now.Before(g.cooldownUntil) {
		return false
	}
	if last, ok := g.lastByTitle[title]; ok && now.Sub(last) < g.opts.RecencyWindow {
		return false
	}

	g.sink.Show(title, description)

	g.seen[logicalID] = struct{}{}
	g.cooldownUntil = now.Add(g.opts.Cooldown)
	g.lastByTitle[title] = now
	g.pruneTitles(now)

	if len(g.recent) == g.opts.HistorySize {
		copy(g.recent, g.recent[1:])
		g.recent = g.recent[:len(g.recent)-1]
	}
	g.recent = append(g.recent, Record{LogicalID: logicalID, Title: title, Description: description, Timestamp: now})
	return true
}

// State reports whether a cooldown is running at now.
func (g *Guard) State(now time.Time) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if now.Before(g.cooldownUntil) {
		return StateCooldownActive
	}
	return StateIdle
}

// Fired reports whether logicalID has ever been delivered.
func (g *Guard) Fired(logicalID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.seen[logicalID]
	return ok
}

// Recent returns delivered notifications, oldest first.
func (g *Guard) Recent() []Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Record, len(g.recent))
	copy(out, g.recent)
	return out
}

// pruneTitles drops titles outside the recency window. Caller holds mu.
func (g *Guard) pruneTitles(now time.Time) {
	for title, at := range g.lastByTitle {
		if now.Sub(at) >= g.opts.RecencyWindow {
			delete(g.lastByTitle, title)
		}
	}
}
