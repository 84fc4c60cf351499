package progression

import "github.com/focusnest/progression-service/internal/workout"

// BuildSnapshot derives the badge evaluation view from the log and the
// current stats. Streaks and counters come from stats; volume and sets are
// summed from records.
func BuildSnapshot(records []workout.Record, stats GamificationStats) StatsSnapshot {
	snap := StatsSnapshot{
		TotalWorkouts: stats.TotalWorkouts,
		CurrentStreak: stats.CurrentStreak,
		LongestStreak: stats.LongestStreak,
		Level:         stats.Level,
		TotalXP:       stats.TotalXP,
	}
	for _, r := range records {
		snap.TotalVolume += r.Volume()
		snap.TotalSets += r.SetCount()
	}
	return snap
}
