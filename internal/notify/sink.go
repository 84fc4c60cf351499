package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/focusnest/progression-service/internal/platform/events"
)

// LogSink writes every delivered notification to the logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Show(title, description string) {
	s.Logger.Info("notification delivered", slog.String("title", title), slog.String("description", description))
}

// MultiSink fans a notification out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Show(title, description string) {
	for _, s := range m {
		s.Show(title, description)
	}
}

// Inbox keeps the most recent delivered notifications per user in memory.
type Inbox struct {
	mu       sync.RWMutex
	now      func() time.Time
	capacity int
	items    map[string][]events.NotificationDelivered
}

// NewInbox keeps up to capacity notifications per user; now may be nil.
func NewInbox(capacity int, now func() time.Time) *Inbox {
	if capacity <= 0 {
		capacity = DefaultOptions().HistorySize
	}
	if now == nil {
		now = time.Now
	}
	return &Inbox{now: now, capacity: capacity, items: make(map[string][]events.NotificationDelivered)}
}

// For returns a sink that files notifications under userID.
func (in *Inbox) For(userID string) Sink {
	return SinkFunc(func(title, description string) {
		in.add(events.NotificationDelivered{
			UserID:      userID,
			Title:       title,
			Description: description,
			DeliveredAt: in.now().UTC(),
		})
	})
}

// List returns userID's notifications, newest first.
func (in *Inbox) List(userID string) []events.NotificationDelivered {
	in.mu.RLock()
	defer in.mu.RUnlock()

	items := in.items[userID]
	out := make([]events.NotificationDelivered, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i])
	}
	return out
}

func (in *Inbox) add(n events.NotificationDelivered) {
	in.mu.Lock()
	defer in.mu.Unlock()

	items := append(in.items[n.UserID], n)
	if len(items) > in.capacity {
		items = items[len(items)-in.capacity:]
	}
	in.items[n.UserID] = items
}
