package progression

import "context"

// State is everything persisted between passes for one user.
type State struct {
	Stats              GamificationStats `json:"stats" firestore:"stats"`
	LastProcessedCount int               `json:"last_processed_count" firestore:"last_processed_count"`
	// Pending holds notifications for transitions that have not yet made it
	// through the dedup guard. They are re-offered on every pass.
	Pending []PendingNotification `json:"pending,omitempty" firestore:"pending"`
}

// PendingNotification is one undelivered transition notification.
type PendingNotification struct {
	LogicalID   string `json:"logical_id" firestore:"logical_id"`
	Title       string `json:"title" firestore:"title"`
	Description string `json:"description" firestore:"description"`
}

// StateStore persists progression state. Load returns ErrStateNotFound for
// users that have never been synced.
type StateStore interface {
	Load(ctx context.Context, userID string) (State, error)
	Save(ctx context.Context, userID string, state State) error
}
