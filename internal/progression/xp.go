package progression

// XPAction keys the XP source table.
type XPAction string

const (
	ActionWorkoutCompleted   XPAction = "workout_completed"
	ActionBadgeUnlocked      XPAction = "badge_unlocked"
	ActionChallengeCompleted XPAction = "challenge_completed"
	ActionStreakMilestone    XPAction = "streak_milestone"
)

// XPSource is one entry of the static award table.
type XPSource struct {
	Amount      int    `json:"amount"`
	Description string `json:"description"`
}

// DefaultXPSources returns the built-in award table.
func DefaultXPSources() map[XPAction]XPSource {
	return map[XPAction]XPSource{
		ActionWorkoutCompleted:   {Amount: 50, Description: "Completed a workout"},
		ActionBadgeUnlocked:      {Amount: 100, Description: "Unlocked a badge"},
		ActionChallengeCompleted: {Amount: 75, Description: "Completed a challenge"},
		ActionStreakMilestone:    {Amount: 150, Description: "Reached a streak milestone"},
	}
}

// AwardResult carries the updated stats and the level crossing, if any.
type AwardResult struct {
	Stats     GamificationStats
	Amount    int
	LeveledUp bool
	From      Level
	To        Level
}

// Ledger applies XP awards against a level table. It never deduplicates:
// every call adds its amount.
type Ledger struct {
	sources map[XPAction]XPSource
	levels  LevelTable
}

// NewLedger copies sources so later edits by the caller have no effect.
func NewLedger(sources map[XPAction]XPSource, levels LevelTable) *Ledger {
	copied := make(map[XPAction]XPSource, len(sources))
	for k, v := range sources {
		copied[k] = v
	}
	return &Ledger{sources: copied, levels: levels}
}

// Levels exposes the table the ledger resolves against.
func (l *Ledger) Levels() LevelTable { return l.levels }

// Source looks up an action's table entry.
func (l *Ledger) Source(action XPAction) (XPSource, bool) {
	src, ok := l.sources[action]
	return src, ok
}

// Award adds the action's amount to stats. Unknown actions return an
// *ActionError and leave stats untouched.
func (l *Ledger) Award(action XPAction, stats GamificationStats) (AwardResult, error) {
	src, ok := l.sources[action]
	if !ok {
		return AwardResult{Stats: stats}, &ActionError{Action: action}
	}
	return l.AwardAmount(src.Amount, stats), nil
}

// AwardAmount adds an explicit amount, used for challenge rewards.
func (l *Ledger) AwardAmount(amount int, stats GamificationStats) AwardResult {
	from := l.levels.Resolve(stats.TotalXP)
	stats.TotalXP += amount
	stats.CurrentXP += amount
	to := l.levels.Resolve(stats.TotalXP)
	stats.Level = to.Level

	return AwardResult{
		Stats:     stats,
		Amount:    amount,
		LeveledUp: to.Level > from.Level,
		From:      from,
		To:        to,
	}
}
