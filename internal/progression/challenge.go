package progression

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/focusnest/progression-service/internal/workout"
)

// ChallengeTemplate is one entry of the generation pool.
type ChallengeTemplate struct {
	ID          string        `json:"id"`
	Type        ChallengeType `json:"type"`
	Metric      Metric        `json:"metric"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Target      int           `json:"target"`
	XPReward    int           `json:"xp_reward"`
}

// DefaultChallengeTemplates returns the built-in pool.
func DefaultChallengeTemplates() []ChallengeTemplate {
	return []ChallengeTemplate{
		{ID: "daily_workout", Type: ChallengeDaily, Metric: MetricWorkouts, Title: "Show Up", Description: "Complete a workout today", Target: 1, XPReward: 50},
		{ID: "daily_sets", Type: ChallengeDaily, Metric: MetricSets, Title: "Set Stacker", Description: "Complete 12 sets today", Target: 12, XPReward: 75},
		{ID: "daily_exercises", Type: ChallengeDaily, Metric: MetricExercises, Title: "Variety Day", Description: "Train 4 different exercises today", Target: 4, XPReward: 75},
		{ID: "daily_volume", Type: ChallengeDaily, Metric: MetricVolume, Title: "Heavy Day", Description: "Lift 2,500 kg today", Target: 2500, XPReward: 100},
		{ID: "weekly_workouts", Type: ChallengeWeekly, Metric: MetricWorkouts, Title: "Four by Seven", Description: "Complete 4 workouts this week", Target: 4, XPReward: 200},
		{ID: "weekly_sets", Type: ChallengeWeekly, Metric: MetricSets, Title: "Volume Week", Description: "Complete 60 sets this week", Target: 60, XPReward: 250},
		{ID: "weekly_volume", Type: ChallengeWeekly, Metric: MetricVolume, Title: "Ton Mover", Description: "Lift 15,000 kg this week", Target: 15000, XPReward: 300},
	}
}

// RandomSource picks template indexes. *math/rand/v2.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// ProgressSource measures a challenge metric over the closed window [from, to].
type ProgressSource interface {
	Measure(metric Metric, from, to time.Time) int
}

// ChallengeRefresh is the result of one challenge evaluation pass.
type ChallengeRefresh struct {
	Challenges     []Challenge
	NewlyCompleted []Challenge
}

// ChallengeEngine generates and tracks time-boxed challenges.
type ChallengeEngine struct {
	pool []ChallengeTemplate
	rng  RandomSource
	ids  IDGenerator
	loc  *time.Location
}

// NewChallengeEngine validates its collaborators. A nil loc means time.Local.
func NewChallengeEngine(pool []ChallengeTemplate, rng RandomSource, ids IDGenerator, loc *time.Location) (*ChallengeEngine, error) {
	if len(pool) == 0 {
		return nil, errors.New("challenge pool is empty")
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
	}
	if loc == nil {
		loc = time.Local
	}
	copied := make([]ChallengeTemplate, len(pool))
	copy(copied, pool)
	return &ChallengeEngine{pool: copied, rng: rng, ids: ids, loc: loc}, nil
}

// Generate picks one template uniformly and instantiates it at now.
func (e *ChallengeEngine) Generate(now time.Time) Challenge {
	tpl := e.pool[e.rng.IntN(len(e.pool))]

	expires := endOfDay(now, e.loc)
	if tpl.Type == ChallengeWeekly {
		expires = endOfWeek(now, e.loc)
	}

	return Challenge{
		ID:          e.ids.NewID(),
		TemplateID:  tpl.ID,
		Type:        tpl.Type,
		Metric:      tpl.Metric,
		Title:       tpl.Title,
		Description: tpl.Description,
		Target:      tpl.Target,
		XPReward:    tpl.XPReward,
		StartedAt:   now,
		ExpiresAt:   expires,
	}
}

// EnsureActive generates one challenge when none is active and none was
// started on the current local day. The generated challenge is returned
// alongside the extended collection, or nil when nothing was generated.
func (e *ChallengeEngine) EnsureActive(challenges []Challenge, now time.Time) ([]Challenge, *Challenge) {
	today := startOfDay(now, e.loc)
	for _, c := range challenges {
		if c.Active(now) || startOfDay(c.StartedAt, e.loc).Equal(today) {
			return cloneChallenges(challenges), nil
		}
	}

	generated := e.Generate(now)
	out := append(cloneChallenges(challenges), generated)
	return out, &generated
}

// Refresh recomputes progress of every active challenge and completes those
// at or above target. Completed and expired challenges pass through unchanged.
func (e *ChallengeEngine) Refresh(challenges []Challenge, source ProgressSource, now time.Time) ChallengeRefresh {
	out := ChallengeRefresh{Challenges: make([]Challenge, 0, len(challenges))}
	for _, c := range challenges {
		c = c.clone()
		if c.Active(now) {
			c.Progress = source.Measure(c.Metric, startOfDay(c.StartedAt, e.loc), c.ExpiresAt)
			if c.Progress >= c.Target {
				completedAt := now
				c.Completed = true
				c.CompletedAt = &completedAt
				out.NewlyCompleted = append(out.NewlyCompleted, c.clone())
			}
		}
		out.Challenges = append(out.Challenges, c)
	}
	return out
}

// ActiveChallenges filters challenges that can still make progress.
func ActiveChallenges(challenges []Challenge, now time.Time) []Challenge {
	return filterChallenges(challenges, func(c Challenge) bool { return c.Active(now) })
}

// ExpiredChallenges filters challenges that ran out uncompleted.
func ExpiredChallenges(challenges []Challenge, now time.Time) []Challenge {
	return filterChallenges(challenges, func(c Challenge) bool { return c.Expired(now) })
}

// PruneHistory keeps every active challenge plus the keep most recently
// started finished ones, preserving order. A negative keep retains everything.
func PruneHistory(challenges []Challenge, now time.Time, keep int) []Challenge {
	if keep < 0 {
		return cloneChallenges(challenges)
	}

	finished := make([]int, 0, len(challenges))
	for i, c := range challenges {
		if !c.Active(now) {
			finished = append(finished, i)
		}
	}
	sort.SliceStable(finished, func(a, b int) bool {
		return challenges[finished[a]].StartedAt.After(challenges[finished[b]].StartedAt)
	})

	drop := make(map[int]struct{})
	if len(finished) > keep {
		for _, i := range finished[keep:] {
			drop[i] = struct{}{}
		}
	}

	out := make([]Challenge, 0, len(challenges)-len(drop))
	for i, c := range challenges {
		if _, ok := drop[i]; ok {
			continue
		}
		out = append(out, c.clone())
	}
	return out
}

func filterChallenges(challenges []Challenge, keep func(Challenge) bool) []Challenge {
	out := []Challenge{}
	for _, c := range challenges {
		if keep(c) {
			out = append(out, c.clone())
		}
	}
	return out
}

func cloneChallenges(challenges []Challenge) []Challenge {
	out := make([]Challenge, len(challenges))
	for i, c := range challenges {
		out[i] = c.clone()
	}
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

// endOfWeek returns the end of the Sunday closing t's Monday-based week.
func endOfWeek(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	daysToSunday := (7 - int(local.Weekday())) % 7
	return endOfDay(local.AddDate(0, 0, daysToSunday), loc)
}

// WorkoutProgress measures challenge metrics from a workout log.
type WorkoutProgress struct {
	records []workout.Record
	loc     *time.Location
}

// NewWorkoutProgress reads record dates in loc (time.Local when nil).
func NewWorkoutProgress(records []workout.Record, loc *time.Location) WorkoutProgress {
	if loc == nil {
		loc = time.Local
	}
	return WorkoutProgress{records: records, loc: loc}
}

// Measure sums metric over records dated within [from, to]. Records with
// unparsable dates are ignored; ComputeStreak reports them.
func (p WorkoutProgress) Measure(metric Metric, from, to time.Time) int {
	var count int
	var volume float64
	for _, r := range p.records {
		at, err := parseDate(r.Date, p.loc)
		if err != nil || at.Before(from) || at.After(to) {
			continue
		}
		switch metric {
		case MetricWorkouts:
			count++
		case MetricSets:
			count += r.SetCount()
		case MetricExercises:
			count += len(r.Exercises)
		case MetricVolume:
			volume += r.Volume()
		}
	}
	if metric == MetricVolume {
		return int(math.Floor(volume))
	}
	return count
}
