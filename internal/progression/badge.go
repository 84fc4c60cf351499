package progression

import (
	"errors"
	"math"
	"time"
)

// BadgeRefresh is the result of one badge evaluation pass.
type BadgeRefresh struct {
	Badges        []Badge
	NewlyUnlocked []Badge
}

// extractors maps each requirement type to its single snapshot reading.
var extractors = map[RequirementType]func(StatsSnapshot) int{
	RequirementWorkouts:      func(s StatsSnapshot) int { return s.TotalWorkouts },
	RequirementStreak:        func(s StatsSnapshot) int { return s.CurrentStreak },
	RequirementLongestStreak: func(s StatsSnapshot) int { return s.LongestStreak },
	RequirementVolume:        func(s StatsSnapshot) int { return int(math.Floor(s.TotalVolume)) },
	RequirementSets:          func(s StatsSnapshot) int { return s.TotalSets },
	RequirementLevel:         func(s StatsSnapshot) int { return s.Level },
	RequirementXP:            func(s StatsSnapshot) int { return s.TotalXP },
}

// RefreshBadges re-reads every badge requirement from snapshot and unlocks
// badges whose target has been reached. Unlocked badges stay unlocked.
// Badges with an unknown requirement type are returned unchanged and
// reported through the joined error; the rest of the pass still runs.
func RefreshBadges(snapshot StatsSnapshot, badges []Badge, now time.Time) (BadgeRefresh, error) {
	out := BadgeRefresh{Badges: make([]Badge, 0, len(badges))}
	var errs []error

	for _, b := range badges {
		b = b.clone()
		extract, ok := extractors[b.Requirement.Type]
		if !ok {
			errs = append(errs, &RequirementError{BadgeID: b.ID, Type: b.Requirement.Type})
			out.Badges = append(out.Badges, b)
			continue
		}

		b.Requirement.Current = extract(snapshot)
		if !b.Unlocked && b.Requirement.Current >= b.Requirement.Target {
			unlockedAt := now
			b.Unlocked = true
			b.UnlockedAt = &unlockedAt
			out.NewlyUnlocked = append(out.NewlyUnlocked, b.clone())
		}
		out.Badges = append(out.Badges, b)
	}

	return out, errors.Join(errs...)
}

// DefaultBadges returns the built-in badge catalog, all locked.
func DefaultBadges() []Badge {
	return []Badge{
		badge("first_workout", "First Rep", "Log your first workout", CategoryMilestone, RarityCommon, RequirementWorkouts, 1),
		badge("workouts_10", "Getting Serious", "Log 10 workouts", CategoryDedication, RarityCommon, RequirementWorkouts, 10),
		badge("workouts_50", "Gym Regular", "Log 50 workouts", CategoryDedication, RarityRare, RequirementWorkouts, 50),
		badge("workouts_100", "Centurion", "Log 100 workouts", CategoryDedication, RarityEpic, RequirementWorkouts, 100),
		badge("workouts_365", "Year of Iron", "Log 365 workouts", CategoryDedication, RarityLegendary, RequirementWorkouts, 365),
		badge("streak_3", "On a Roll", "Train 3 days in a row", CategoryConsistency, RarityCommon, RequirementStreak, 3),
		badge("streak_7", "Week Warrior", "Train 7 days in a row", CategoryConsistency, RarityRare, RequirementStreak, 7),
		badge("streak_30", "Unstoppable", "Train 30 days in a row", CategoryConsistency, RarityEpic, RequirementStreak, 30),
		badge("longest_streak_100", "Iron Will", "Reach a 100 day streak at any time", CategoryConsistency, RarityLegendary, RequirementLongestStreak, 100),
		badge("volume_10000", "Heavy Lifter", "Move 10,000 kg in total", CategoryStrength, RarityRare, RequirementVolume, 10000),
		badge("volume_100000", "Titan", "Move 100,000 kg in total", CategoryStrength, RarityEpic, RequirementVolume, 100000),
		badge("sets_500", "Set Collector", "Complete 500 sets", CategoryStrength, RarityRare, RequirementSets, 500),
		badge("level_5", "Rising Athlete", "Reach level 5", CategoryMilestone, RarityRare, RequirementLevel, 5),
		badge("level_10", "Living Legend", "Reach level 10", CategoryMilestone, RarityLegendary, RequirementLevel, 10),
	}
}

func badge(id, name, description string, category Category, rarity Rarity, kind RequirementType, target int) Badge {
	return Badge{
		ID:          id,
		Name:        name,
		Description: description,
		Category:    category,
		Rarity:      rarity,
		Requirement: Requirement{Type: kind, Target: target},
	}
}
