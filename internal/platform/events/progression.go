package events

import (
	"context"
	"log/slog"
	"time"
)

// TopicProgressionEvents carries every transition produced by a recompute pass.
const TopicProgressionEvents = "progression.events"

// Kind identifies a progression state transition.
type Kind string

const (
	KindLevelUp            Kind = "level_up"
	KindBadgeUnlocked      Kind = "badge_unlocked"
	KindChallengeCompleted Kind = "challenge_completed"
	KindStreakMilestone    Kind = "streak_milestone"
)

// Progression describes one transition produced by a recompute pass.
type Progression struct {
	Kind       Kind      `json:"kind"`
	UserID     string    `json:"userId"`
	LogicalID  string    `json:"logicalId"`
	Title      string    `json:"title"`
	Detail     string    `json:"detail"`
	XPAwarded  int       `json:"xpAwarded"`
	TotalXP    int       `json:"totalXp"`
	Level      int       `json:"level"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NotificationDelivered records one notification that passed the dedup guard.
type NotificationDelivered struct {
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DeliveredAt time.Time `json:"deliveredAt"`
}

// LogPublisher writes events to a logger; used where no broker is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

// Publish logs event under topic. It never fails.
func (p LogPublisher) Publish(_ context.Context, topic string, event Progression) error {
	p.Logger.Info("progression event",
		slog.String("topic", topic),
		slog.String("kind", string(event.Kind)),
		slog.String("userId", event.UserID),
		slog.String("logicalId", event.LogicalID),
		slog.Int("xpAwarded", event.XPAwarded),
		slog.Int("level", event.Level),
	)
	return nil
}
