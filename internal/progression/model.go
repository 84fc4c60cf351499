package progression

import "time"

// CurrentSchemaVersion is the layout version written by this build. Older
// records are moved forward by Migrate; records are never deleted.
const CurrentSchemaVersion = 2

// GamificationStats is the persisted progression aggregate for one user.
type GamificationStats struct {
	SchemaVersion int         `json:"schema_version" firestore:"schema_version"`
	CurrentXP     int         `json:"current_xp" firestore:"current_xp"`
	TotalXP       int         `json:"total_xp" firestore:"total_xp"`
	Level         int         `json:"level" firestore:"level"`
	CurrentStreak int         `json:"current_streak" firestore:"current_streak"`
	LongestStreak int         `json:"longest_streak" firestore:"longest_streak"`
	TotalWorkouts int         `json:"total_workouts" firestore:"total_workouts"`
	Badges        []Badge     `json:"badges" firestore:"badges"`
	Challenges    []Challenge `json:"challenges" firestore:"challenges"`
}

// NewStats returns the zeroed record used on first use.
func NewStats() GamificationStats {
	return GamificationStats{
		SchemaVersion: CurrentSchemaVersion,
		Level:         1,
		Badges:        DefaultBadges(),
		Challenges:    []Challenge{},
	}
}

// Clone returns a deep copy so engine passes never alias the caller's slices.
func (s GamificationStats) Clone() GamificationStats {
	out := s
	out.Badges = make([]Badge, len(s.Badges))
	for i, b := range s.Badges {
		out.Badges[i] = b.clone()
	}
	out.Challenges = make([]Challenge, len(s.Challenges))
	for i, c := range s.Challenges {
		out.Challenges[i] = c.clone()
	}
	return out
}

// Category groups badges for display.
type Category string

const (
	CategoryConsistency Category = "consistency"
	CategoryDedication  Category = "dedication"
	CategoryStrength    Category = "strength"
	CategoryMilestone   Category = "milestone"
)

// Rarity ranks how hard a badge is to earn.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// RequirementType names the snapshot metric a badge tracks.
type RequirementType string

const (
	RequirementWorkouts      RequirementType = "workouts"
	RequirementStreak        RequirementType = "streak"
	RequirementLongestStreak RequirementType = "longest_streak"
	RequirementVolume        RequirementType = "volume"
	RequirementSets          RequirementType = "sets"
	RequirementLevel         RequirementType = "level"
	RequirementXP            RequirementType = "xp"
)

// Requirement is the unlock condition of a badge.
type Requirement struct {
	Type    RequirementType `json:"type" firestore:"type"`
	Target  int             `json:"target" firestore:"target"`
	Current int             `json:"current" firestore:"current"`
}

// Badge is a permanently awarded achievement marker.
type Badge struct {
	ID          string      `json:"id" firestore:"id"`
	Name        string      `json:"name" firestore:"name"`
	Description string      `json:"description" firestore:"description"`
	Category    Category    `json:"category" firestore:"category"`
	Rarity      Rarity      `json:"rarity" firestore:"rarity"`
	Requirement Requirement `json:"requirement" firestore:"requirement"`
	Unlocked    bool        `json:"unlocked" firestore:"unlocked"`
	UnlockedAt  *time.Time  `json:"unlocked_at,omitempty" firestore:"unlocked_at"`
}

func (b Badge) clone() Badge {
	if b.UnlockedAt != nil {
		t := *b.UnlockedAt
		b.UnlockedAt = &t
	}
	return b
}

// ChallengeType is the lifetime of a challenge.
type ChallengeType string

const (
	ChallengeDaily  ChallengeType = "daily"
	ChallengeWeekly ChallengeType = "weekly"
)

// Metric names what a challenge counts inside its window.
type Metric string

const (
	MetricWorkouts  Metric = "workouts"
	MetricSets      Metric = "sets"
	MetricVolume    Metric = "volume"
	MetricExercises Metric = "exercises"
)

// Challenge is a time-boxed objective generated from a template.
type Challenge struct {
	ID          string        `json:"id" firestore:"id"`
	TemplateID  string        `json:"template_id" firestore:"template_id"`
	Type        ChallengeType `json:"type" firestore:"type"`
	Metric      Metric        `json:"metric" firestore:"metric"`
	Title       string        `json:"title" firestore:"title"`
	Description string        `json:"description" firestore:"description"`
	Target      int           `json:"target" firestore:"target"`
	Progress    int           `json:"progress" firestore:"progress"`
	XPReward    int           `json:"xp_reward" firestore:"xp_reward"`
	StartedAt   time.Time     `json:"started_at" firestore:"started_at"`
	ExpiresAt   time.Time     `json:"expires_at" firestore:"expires_at"`
	Completed   bool          `json:"completed" firestore:"completed"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" firestore:"completed_at"`
}

// Active reports whether the challenge can still make progress at now.
func (c Challenge) Active(now time.Time) bool {
	return !c.Completed && now.Before(c.ExpiresAt)
}

// Expired reports whether the challenge ran out without being completed.
func (c Challenge) Expired(now time.Time) bool {
	return !c.Completed && !now.Before(c.ExpiresAt)
}

func (c Challenge) clone() Challenge {
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

// StatsSnapshot is the read-only view badges are evaluated against.
type StatsSnapshot struct {
	TotalWorkouts int
	CurrentStreak int
	LongestStreak int
	TotalVolume   float64
	TotalSets     int
	Level         int
	TotalXP       int
}
