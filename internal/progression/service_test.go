package progression

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/progression-service/internal/notify"
	"github.com/focusnest/progression-service/internal/platform/events"
	"github.com/focusnest/progression-service/internal/workout"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type recordingPublisher struct{ events []events.Progression }

func (p *recordingPublisher) Publish(_ context.Context, topic string, ev events.Progression) error {
	if topic != events.TopicProgressionEvents {
		return errors.New("unexpected topic " + topic)
	}
	p.events = append(p.events, ev)
	return nil
}

type failingLog struct{}

func (failingLog) List(context.Context, string) ([]workout.Record, error) {
	return nil, errors.New("log unavailable")
}

type harness struct {
	svc       *Service
	repo      workout.Repository
	store     StateStore
	clock     *fixedClock
	shown     []string
	publisher *recordingPublisher
}

func newHarness(t *testing.T, sources map[XPAction]XPSource) *harness {
	t.Helper()
	h := &harness{
		repo:      workout.NewMemoryRepository(),
		store:     NewMemoryStore(),
		clock:     &fixedClock{now: challengeNow},
		publisher: &recordingPublisher{},
	}
	engine, err := NewChallengeEngine([]ChallengeTemplate{oneWorkoutTemplate()}, fixedRand{}, &seqIDs{prefix: "c-"}, time.UTC)
	require.NoError(t, err)

	guards := notify.NewRegistry(notify.DefaultOptions(), func(string) notify.Sink {
		return notify.SinkFunc(func(title, _ string) { h.shown = append(h.shown, title) })
	})

	h.svc, err = NewService(Deps{
		Log:        h.repo,
		Store:      h.store,
		Ledger:     NewLedger(sources, DefaultLevelTable()),
		Challenges: engine,
		Guards:     guards,
		Publisher:  h.publisher,
		Clock:      h.clock,
		Location:   time.UTC,
	})
	require.NoError(t, err)
	return h
}

func (h *harness) logWorkout(t *testing.T, id string, at time.Time) {
	t.Helper()
	err := h.repo.Append(context.Background(), workout.Record{
		ID:        id,
		UserID:    "user-1",
		Date:      at.Format(time.RFC3339Nano),
		Exercises: []workout.Exercise{{Name: "Squat", Sets: []workout.Set{{Reps: 5, WeightKg: 100}}}},
		CreatedAt: at,
	})
	require.NoError(t, err)
}

func logicalIDs(evs []events.Progression) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.LogicalID
	}
	return out
}

func TestServiceSync_FirstWorkout(t *testing.T) {
	h := newHarness(t, DefaultXPSources())
	h.logWorkout(t, "w-1", challengeNow)

	res, err := h.svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)

	// 50 workout + 100 badge + 50 challenge.
	assert.Equal(t, 200, res.XPAwarded)
	assert.Equal(t, 200, res.Stats.TotalXP)
	assert.Equal(t, 1, res.Stats.TotalWorkouts)
	assert.Equal(t, 1, res.Stats.CurrentStreak)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 2, res.Level.Level)
	require.Len(t, res.NewBadges, 1)
	assert.Equal(t, "first_workout", res.NewBadges[0].ID)
	require.NotNil(t, res.GeneratedChallenge)
	assert.True(t, res.GeneratedChallenge.Completed)
	require.Len(t, res.CompletedChallenges, 1)

	assert.Equal(t, []string{"badge_first_workout", "challenge_c-1", "level_2"}, logicalIDs(res.Events))
	levelUp := res.Events[2]
	assert.Equal(t, events.KindLevelUp, levelUp.Kind)
	assert.Equal(t, 2, levelUp.Level, "level-up carries the post-award level")
	assert.Equal(t, 200, levelUp.TotalXP)
	assert.Equal(t, res.Events, h.publisher.events)

	// Every event lands in one burst, so the cooldown lets only the first through.
	require.Len(t, res.Notifications, 3)
	assert.True(t, res.Notifications[0].Delivered)
	assert.False(t, res.Notifications[1].Delivered)
	assert.False(t, res.Notifications[2].Delivered)
	assert.Equal(t, []string{"Badge unlocked: First Rep"}, h.shown)

	saved, err := h.store.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.LastProcessedCount)
	assert.Equal(t, 200, saved.Stats.TotalXP)
	require.Len(t, saved.Pending, 2)
	assert.Equal(t, "challenge_c-1", saved.Pending[0].LogicalID)
	assert.Equal(t, "level_2", saved.Pending[1].LogicalID)
}

func TestServiceSync_DeferredNotificationsDrainOnLaterPasses(t *testing.T) {
	h := newHarness(t, DefaultXPSources())
	h.logWorkout(t, "w-1", challengeNow)

	_, err := h.svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)

	wantDelivered := [][]string{{"challenge_c-1"}, {"level_2"}, nil}
	for i := 0; i < 3; i++ {
		h.clock.now = h.clock.now.Add(time.Minute)
		res, err := h.svc.Sync(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Zero(t, res.XPAwarded)
		assert.Empty(t, res.Events)
		assert.Nil(t, res.GeneratedChallenge)
		assert.Equal(t, 200, res.Stats.TotalXP)
		assert.Len(t, res.Stats.Challenges, 1)

		var delivered []string
		for _, n := range res.Notifications {
			if n.Delivered {
				delivered = append(delivered, n.LogicalID)
			}
		}
		assert.Equal(t, wantDelivered[i], delivered, "pass %d", i+1)
	}

	assert.Equal(t, []string{
		"Badge unlocked: First Rep",
		"Challenge complete: One",
		"Level 2 reached",
	}, h.shown)
	assert.Len(t, h.publisher.events, 3, "re-offered notifications are not republished")

	saved, err := h.store.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, saved.Pending)
}

func TestServiceSync_PendingSurvivesRestart(t *testing.T) {
	h := newHarness(t, DefaultXPSources())
	h.logWorkout(t, "w-1", challengeNow)
	_, err := h.svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)

	// A fresh service over the same store has an empty guard registry.
	var shown []string
	engine, err := NewChallengeEngine([]ChallengeTemplate{oneWorkoutTemplate()}, fixedRand{}, &seqIDs{prefix: "c-"}, time.UTC)
	require.NoError(t, err)
	svc, err := NewService(Deps{
		Log:        h.repo,
		Store:      h.store,
		Ledger:     NewLedger(DefaultXPSources(), DefaultLevelTable()),
		Challenges: engine,
		Guards: notify.NewRegistry(notify.DefaultOptions(), func(string) notify.Sink {
			return notify.SinkFunc(func(title, _ string) { shown = append(shown, title) })
		}),
		Clock:    &fixedClock{now: challengeNow.Add(time.Minute)},
		Location: time.UTC,
	})
	require.NoError(t, err)

	res, err := svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, res.Notifications, 2)
	assert.Equal(t, []string{"Challenge complete: One"}, shown)

	saved, err := h.store.Load(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, saved.Pending, 1)
	assert.Equal(t, "level_2", saved.Pending[0].LogicalID)
}

func TestServiceSync_AwardsUnlockLevelAndXPBadges(t *testing.T) {
	h := newHarness(t, DefaultXPSources())
	stats := NewStats()
	stats.TotalXP = 880
	stats.Level = 4
	stats.Badges = append(stats.Badges, badge("xp_1000", "Four Digits", "Earn 1,000 XP", CategoryMilestone, RarityRare, RequirementXP, 1000))
	require.NoError(t, h.store.Save(context.Background(), "user-1", State{Stats: stats}))
	h.logWorkout(t, "w-1", challengeNow)

	res, err := h.svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)

	// 50 workout + 3 badges at 100 + 50 challenge.
	assert.Equal(t, 400, res.XPAwarded)
	assert.Equal(t, 1280, res.Stats.TotalXP)
	assert.Equal(t, 5, res.Stats.Level)
	assert.True(t, res.LeveledUp)

	var ids []string
	for _, b := range res.NewBadges {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"first_workout", "level_5", "xp_1000"}, ids)
	assert.Equal(t,
		[]string{"badge_first_workout", "badge_level_5", "badge_xp_1000", "challenge_c-1", "level_5"},
		logicalIDs(res.Events))

	saved, err := h.store.Load(context.Background(), "user-1")
	require.NoError(t, err)
	for _, b := range saved.Stats.Badges {
		if b.ID == "level_5" || b.ID == "xp_1000" {
			assert.True(t, b.Unlocked, b.ID)
		}
	}

	h.clock.now = h.clock.now.Add(time.Minute)
	again, err := h.svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, again.NewBadges)
	assert.Zero(t, again.XPAwarded)
}

func TestServiceSync_NewWorkoutsAwardPerDelta(t *testing.T) {
	h := newHarness(t, DefaultXPSources())
	h.logWorkout(t, "w-1", challengeNow)
	first, err := h.svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)

	h.logWorkout(t, "w-2", challengeNow.Add(time.Hour))
	h.logWorkout(t, "w-3", challengeNow.Add(2*time.Hour))
	h.clock.now = challengeNow.Add(3 * time.Hour)

	res, err := h.svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 100, res.XPAwarded)
	assert.Equal(t, first.Stats.TotalXP+100, res.Stats.TotalXP)
	assert.Equal(t, 3, res.Stats.TotalWorkouts)
}

func TestServiceSync_StreakMilestoneOnce(t *testing.T) {
	h := newHarness(t, DefaultXPSources())
	for i, d := range []int{-2, -1, 0} {
		h.logWorkout(t, "w-"+string(rune('a'+i)), challengeNow.AddDate(0, 0, d))
	}

	res, err := h.svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, res.StreakMilestones)
	assert.Equal(t, 3, res.Stats.CurrentStreak)
	assert.Contains(t, logicalIDs(res.Events), "streak_3")
	assert.Contains(t, logicalIDs(res.Events), "badge_streak_3")

	ids := logicalIDs(res.Events)
	assert.Less(t, indexOf(ids, "badge_streak_3"), indexOf(ids, "streak_3"), "badges dispatch before streak milestones")

	h.clock.now = h.clock.now.Add(time.Minute)
	again, err := h.svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, again.StreakMilestones)
}

func TestServiceSync_LogShrinkResetsCounter(t *testing.T) {
	h := newHarness(t, DefaultXPSources())
	stats := NewStats()
	stats.TotalXP = 500
	require.NoError(t, h.store.Save(context.Background(), "user-1", State{Stats: stats, LastProcessedCount: 5}))
	h.logWorkout(t, "w-1", challengeNow)

	res, err := h.svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.TotalWorkouts)

	saved, err := h.store.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.LastProcessedCount)
}

func TestServiceSync_UnknownActionAbortsBeforeSave(t *testing.T) {
	sources := DefaultXPSources()
	delete(sources, ActionWorkoutCompleted)
	h := newHarness(t, sources)
	h.logWorkout(t, "w-1", challengeNow)

	_, err := h.svc.Sync(context.Background(), "user-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownXPAction)

	_, err = h.store.Load(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrStateNotFound)
	assert.Empty(t, h.shown)
}

func TestServiceSync_InvalidDatesAreNotFatal(t *testing.T) {
	h := newHarness(t, DefaultXPSources())
	h.logWorkout(t, "w-1", challengeNow)
	require.NoError(t, h.repo.Append(context.Background(), workout.Record{ID: "w-bad", UserID: "user-1", Date: "soon"}))

	res, err := h.svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.TotalWorkouts)
	assert.Equal(t, 1, res.Stats.CurrentStreak)
}

func TestServiceSync_Errors(t *testing.T) {
	h := newHarness(t, DefaultXPSources())
	_, err := h.svc.Sync(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingUserID)

	engine, err := NewChallengeEngine(DefaultChallengeTemplates(), fixedRand{}, &seqIDs{}, time.UTC)
	require.NoError(t, err)
	svc, err := NewService(Deps{
		Log:        failingLog{},
		Store:      NewMemoryStore(),
		Ledger:     NewLedger(DefaultXPSources(), DefaultLevelTable()),
		Challenges: engine,
		Guards:     notify.NewRegistry(notify.DefaultOptions(), nil),
	})
	require.NoError(t, err)
	_, err = svc.Sync(context.Background(), "user-1")
	assert.ErrorContains(t, err, "log unavailable")
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := NewService(Deps{})
	assert.Error(t, err)
}

func TestServiceProfile(t *testing.T) {
	h := newHarness(t, DefaultXPSources())
	h.logWorkout(t, "w-1", challengeNow)

	view, err := h.svc.Profile(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 2, view.Level.Level)
	require.NotNil(t, view.NextLevel)
	assert.Equal(t, 3, view.NextLevel.Level)
	assert.InDelta(t, 66.67, view.ProgressPercent, 0.01)
	assert.Len(t, view.UnlockedBadges, 1)
	assert.Len(t, view.LockedBadges, len(DefaultBadges())-1)
	assert.Empty(t, view.ActiveChallenges, "the only challenge is already complete")
}

func indexOf(items []string, want string) int {
	for i, item := range items {
		if item == want {
			return i
		}
	}
	return -1
}
