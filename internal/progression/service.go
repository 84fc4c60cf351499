package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/focusnest/progression-service/internal/notify"
	"github.com/focusnest/progression-service/internal/platform/clock"
	"github.com/focusnest/progression-service/internal/platform/events"
	"github.com/focusnest/progression-service/internal/platform/logging"
	"github.com/focusnest/progression-service/internal/workout"
)

// StreakMilestones are the streak lengths that award XP the first time they are reached.
var StreakMilestones = []int{3, 7, 14, 30, 100}

// DefaultChallengeHistory is how many finished challenges a record keeps.
const DefaultChallengeHistory = 30

// LogReader is the read side of the workout log.
type LogReader interface {
	List(ctx context.Context, userID string) ([]workout.Record, error)
}

// Publisher receives the transitions of every pass.
type Publisher interface {
	Publish(ctx context.Context, topic string, event events.Progression) error
}

// Deps bundles the collaborators of Service.
type Deps struct {
	Log              LogReader
	Store            StateStore
	Ledger           *Ledger
	Challenges       *ChallengeEngine
	Catalog          []Badge
	Guards           *notify.Registry
	Publisher        Publisher
	Clock            Clock
	Logger           *slog.Logger
	Location         *time.Location
	ChallengeHistory int
}

// Service runs recompute passes for users. Passes for the same user are serialized.
type Service struct {
	log        LogReader
	store      StateStore
	ledger     *Ledger
	challenges *ChallengeEngine
	catalog    []Badge
	guards     *notify.Registry
	publisher  Publisher
	clock      Clock
	logger     *slog.Logger
	loc        *time.Location
	history    int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(d Deps) (*Service, error) {
	if d.Log == nil {
		return nil, errors.New("workout log is required")
	}
	if d.Store == nil {
		return nil, errors.New("state store is required")
	}
	if d.Ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if d.Challenges == nil {
		return nil, errors.New("challenge engine is required")
	}
	if d.Guards == nil {
		return nil, errors.New("notification registry is required")
	}
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Catalog == nil {
		d.Catalog = DefaultBadges()
	}
	if d.ChallengeHistory == 0 {
		d.ChallengeHistory = DefaultChallengeHistory
	}

	return &Service{
		log:        d.Log,
		store:      d.Store,
		ledger:     d.Ledger,
		challenges: d.Challenges,
		catalog:    d.Catalog,
		guards:     d.Guards,
		publisher:  d.Publisher,
		clock:      d.Clock,
		logger:     d.Logger,
		loc:        d.Location,
		history:    d.ChallengeHistory,
		locks:      make(map[string]*sync.Mutex),
	}, nil
}

// Dispatch is the outcome of routing one transition through the guard.
type Dispatch struct {
	LogicalID string `json:"logical_id"`
	Title     string `json:"title"`
	Delivered bool   `json:"delivered"`
}

// SyncResult summarizes one recompute pass.
type SyncResult struct {
	Stats               GamificationStats    `json:"stats"`
	XPAwarded           int                  `json:"xp_awarded"`
	LeveledUp           bool                 `json:"leveled_up"`
	Level               Level                `json:"level"`
	StreakMilestones    []int                `json:"streak_milestones,omitempty"`
	NewBadges           []Badge              `json:"new_badges,omitempty"`
	CompletedChallenges []Challenge          `json:"completed_challenges,omitempty"`
	GeneratedChallenge  *Challenge           `json:"generated_challenge,omitempty"`
	Events              []events.Progression `json:"events,omitempty"`
	Notifications       []Dispatch           `json:"notifications,omitempty"`
}

// Sync loads the user's log and state, applies every transition the log
// implies, saves the result and then dispatches notifications. Evaluation
// runs before XP awards and XP awards before notifications, so a level-up
// notification carries the post-award level.
func (s *Service) Sync(ctx context.Context, userID string) (SyncResult, error) {
	if userID == "" {
		return SyncResult{}, ErrMissingUserID
	}
	unlock := s.lockUser(userID)
	defer unlock()

	logger := logging.WithUser(logging.WithRequestID(ctx, s.logger), userID)

	var (
		records []workout.Record
		state   State
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.log.List(gctx, userID)
		if err != nil {
			return fmt.Errorf("list workouts: %w", err)
		}
		records = r
		return nil
	})
	g.Go(func() error {
		st, err := s.store.Load(gctx, userID)
		if errors.Is(err, ErrStateNotFound) {
			state = State{Stats: NewStats()}
			return nil
		}
		if err != nil {
			return fmt.Errorf("load progression: %w", err)
		}
		state = st
		return nil
	})
	if err := g.Wait(); err != nil {
		return SyncResult{}, err
	}

	now := s.clock.Now()
	stats := Migrate(state.Stats, s.catalog, s.ledger.Levels())
	startLevel := stats.Level
	result := SyncResult{}
	var pending []events.Progression

	award := func(action XPAction) error {
		res, err := s.ledger.Award(action, stats)
		if err != nil {
			logger.Error("xp award failed", slog.String("action", string(action)), slog.Any("error", err))
			return err
		}
		stats = res.Stats
		result.XPAwarded += res.Amount
		return nil
	}

	delta := len(records) - state.LastProcessedCount
	if delta < 0 {
		logger.Warn("workout log shrank; resetting processed count",
			slog.Int("lastProcessed", state.LastProcessedCount), slog.Int("count", len(records)))
	}
	for i := 0; i < delta; i++ {
		if err := award(ActionWorkoutCompleted); err != nil {
			return SyncResult{}, err
		}
	}
	stats.TotalWorkouts = len(records)

	dates := make([]string, len(records))
	for i, r := range records {
		dates[i] = r.Date
	}
	streak, longest, err := Streaks(dates, s.loc)
	if err != nil {
		logger.Warn("invalid workout timestamps excluded from streak", slog.Any("error", err))
	}

	prevLongest := stats.LongestStreak
	stats.CurrentStreak = streak
	stats.LongestStreak = max(stats.LongestStreak, longest, streak)
	for _, m := range StreakMilestones {
		if prevLongest < m && stats.LongestStreak >= m {
			if err := award(ActionStreakMilestone); err != nil {
				return SyncResult{}, err
			}
			result.StreakMilestones = append(result.StreakMilestones, m)
		}
	}

	// Badge and challenge XP can move level and xp requirements, so badges are
	// refreshed until a pass unlocks nothing new.
	badgeErrLogged := false
	refreshBadges := func() error {
		for {
			refresh, err := RefreshBadges(BuildSnapshot(records, stats), stats.Badges, now)
			if err != nil && !badgeErrLogged {
				logger.Error("badge requirements skipped", slog.Any("error", err))
				badgeErrLogged = true
			}
			stats.Badges = refresh.Badges
			if len(refresh.NewlyUnlocked) == 0 {
				return nil
			}
			for range refresh.NewlyUnlocked {
				if err := award(ActionBadgeUnlocked); err != nil {
					return err
				}
			}
			result.NewBadges = append(result.NewBadges, refresh.NewlyUnlocked...)
		}
	}
	if err := refreshBadges(); err != nil {
		return SyncResult{}, err
	}

	challenges, generated := s.challenges.EnsureActive(stats.Challenges, now)
	cref := s.challenges.Refresh(challenges, NewWorkoutProgress(records, s.loc), now)
	for _, c := range cref.NewlyCompleted {
		res := s.ledger.AwardAmount(c.XPReward, stats)
		stats = res.Stats
		result.XPAwarded += res.Amount
	}
	stats.Challenges = PruneHistory(cref.Challenges, now, s.history)
	result.CompletedChallenges = cref.NewlyCompleted
	if generated != nil {
		for _, c := range stats.Challenges {
			if c.ID == generated.ID {
				result.GeneratedChallenge = &c
				break
			}
		}
	}
	if len(cref.NewlyCompleted) > 0 {
		if err := refreshBadges(); err != nil {
			return SyncResult{}, err
		}
	}

	level := s.ledger.Levels().Resolve(stats.TotalXP)
	result.Stats = stats
	result.Level = level
	result.LeveledUp = stats.Level > startLevel

	for _, b := range result.NewBadges {
		pending = append(pending, s.event(events.KindBadgeUnlocked, userID, "badge_"+b.ID,
			"Badge unlocked: "+b.Name, b.Description, s.amountOf(ActionBadgeUnlocked), stats, now))
	}
	for _, c := range cref.NewlyCompleted {
		pending = append(pending, s.event(events.KindChallengeCompleted, userID, "challenge_"+c.ID,
			"Challenge complete: "+c.Title, fmt.Sprintf("+%d XP", c.XPReward), c.XPReward, stats, now))
	}
	for _, m := range result.StreakMilestones {
		pending = append(pending, s.event(events.KindStreakMilestone, userID, fmt.Sprintf("streak_%d", m),
			fmt.Sprintf("%d-day streak!", m), "Keep the momentum going", s.amountOf(ActionStreakMilestone), stats, now))
	}
	if result.LeveledUp {
		pending = append(pending, s.event(events.KindLevelUp, userID, fmt.Sprintf("level_%d", level.Level),
			fmt.Sprintf("Level %d reached", level.Level), "You are now "+level.Name, 0, stats, now))
	}

	// Undelivered notifications from earlier passes go first so dispatch keeps
	// transition order across passes.
	queue := append([]PendingNotification(nil), state.Pending...)
	for _, ev := range pending {
		queue = append(queue, PendingNotification{LogicalID: ev.LogicalID, Title: ev.Title, Description: ev.Detail})
	}

	next := State{Stats: stats, LastProcessedCount: len(records), Pending: queue}
	if err := s.store.Save(ctx, userID, next); err != nil {
		return SyncResult{}, fmt.Errorf("save progression: %w", err)
	}

	for _, ev := range pending {
		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, events.TopicProgressionEvents, ev); err != nil {
				logger.Warn("publish progression event failed", slog.String("logicalId", ev.LogicalID), slog.Any("error", err))
			}
		}
	}

	remaining, dispatched := s.dispatch(logger, userID, queue, now)
	result.Notifications = dispatched
	if len(remaining) != len(queue) {
		next.Pending = remaining
		if err := s.store.Save(ctx, userID, next); err != nil {
			// Delivered entries stay queued; the guard drops them on the next pass.
			logger.Warn("save pending notifications failed", slog.Any("error", err))
		}
	}
	result.Events = pending

	return result, nil
}

// dispatch offers queued notifications to the user's guard in order and
// returns the ones still waiting. Entries the guard has already delivered are
// dropped without being offered again.
func (s *Service) dispatch(logger *slog.Logger, userID string, queue []PendingNotification, now time.Time) ([]PendingNotification, []Dispatch) {
	guard := s.guards.For(userID)
	var (
		remaining  []PendingNotification
		dispatched []Dispatch
	)
	seen := make(map[string]struct{}, len(queue))
	for _, n := range queue {
		if _, dup := seen[n.LogicalID]; dup {
			continue
		}
		seen[n.LogicalID] = struct{}{}
		if guard.Fired(n.LogicalID) {
			continue
		}

		delivered := guard.TryFire(n.LogicalID, n.Title, n.Description, now)
		if !delivered {
			logger.Debug("notification deferred", slog.String("logicalId", n.LogicalID))
			remaining = append(remaining, n)
		}
		dispatched = append(dispatched, Dispatch{LogicalID: n.LogicalID, Title: n.Title, Delivered: delivered})
	}
	return remaining, dispatched
}

func (s *Service) event(kind events.Kind, userID, logicalID, title, detail string, xp int, stats GamificationStats, now time.Time) events.Progression {
	return events.Progression{
		Kind:       kind,
		UserID:     userID,
		LogicalID:  logicalID,
		Title:      title,
		Detail:     detail,
		XPAwarded:  xp,
		TotalXP:    stats.TotalXP,
		Level:      stats.Level,
		OccurredAt: now,
	}
}

func (s *Service) amountOf(action XPAction) int {
	src, _ := s.ledger.Source(action)
	return src.Amount
}

func (s *Service) lockUser(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Levels returns the level table used for resolution.
func (s *Service) Levels() []Level {
	return s.ledger.Levels().Levels()
}
