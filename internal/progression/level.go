package progression

import (
	"fmt"
	"sort"
)

// Level is one XP band [MinXP, MaxXP). MaxXP is zero on the terminal,
// unbounded band.
type Level struct {
	Level   int      `json:"level"`
	Name    string   `json:"name"`
	MinXP   int      `json:"min_xp"`
	MaxXP   int      `json:"max_xp,omitempty"`
	Rewards []string `json:"rewards,omitempty"`
}

// Terminal reports whether the band has no upper bound.
func (l Level) Terminal() bool { return l.MaxXP == 0 }

// LevelTable is an ordered, gap-free set of bands covering [0, +inf).
type LevelTable struct {
	levels []Level
}

// DefaultLevels returns the built-in level bands.
func DefaultLevels() []Level {
	return []Level{
		{Level: 1, Name: "Rookie", MinXP: 0, MaxXP: 100},
		{Level: 2, Name: "Novice", MinXP: 100, MaxXP: 250, Rewards: []string{"profile_frame_bronze"}},
		{Level: 3, Name: "Apprentice", MinXP: 250, MaxXP: 500},
		{Level: 4, Name: "Regular", MinXP: 500, MaxXP: 1000, Rewards: []string{"theme_dark_iron"}},
		{Level: 5, Name: "Athlete", MinXP: 1000, MaxXP: 2000, Rewards: []string{"profile_frame_silver"}},
		{Level: 6, Name: "Contender", MinXP: 2000, MaxXP: 3500},
		{Level: 7, Name: "Challenger", MinXP: 3500, MaxXP: 5500, Rewards: []string{"profile_frame_gold"}},
		{Level: 8, Name: "Elite", MinXP: 5500, MaxXP: 8000},
		{Level: 9, Name: "Champion", MinXP: 8000, MaxXP: 12000, Rewards: []string{"theme_champion"}},
		{Level: 10, Name: "Legend", MinXP: 12000, Rewards: []string{"profile_frame_legend"}},
	}
}

// DefaultLevelTable returns the validated built-in table.
func DefaultLevelTable() LevelTable {
	table, err := NewLevelTable(DefaultLevels())
	if err != nil {
		panic(err)
	}
	return table
}

// NewLevelTable validates levels and builds a table. Bands must start at 0,
// be contiguous, have ascending level numbers and only the last may be unbounded.
func NewLevelTable(levels []Level) (LevelTable, error) {
	if len(levels) == 0 {
		return LevelTable{}, fmt.Errorf("%w: no levels", ErrInvalidLevelTable)
	}
	if levels[0].MinXP != 0 {
		return LevelTable{}, fmt.Errorf("%w: first band starts at %d", ErrInvalidLevelTable, levels[0].MinXP)
	}
	for i, l := range levels {
		last := i == len(levels)-1
		if last && !l.Terminal() {
			return LevelTable{}, fmt.Errorf("%w: last band must be unbounded", ErrInvalidLevelTable)
		}
		if !last && l.MaxXP <= l.MinXP {
			return LevelTable{}, fmt.Errorf("%w: level %d has empty band", ErrInvalidLevelTable, l.Level)
		}
		if i == 0 {
			continue
		}
		prev := levels[i-1]
		if l.Level <= prev.Level {
			return LevelTable{}, fmt.Errorf("%w: level %d not after %d", ErrInvalidLevelTable, l.Level, prev.Level)
		}
		if l.MinXP != prev.MaxXP {
			return LevelTable{}, fmt.Errorf("%w: gap between level %d and %d", ErrInvalidLevelTable, prev.Level, l.Level)
		}
	}

	out := make([]Level, len(levels))
	copy(out, levels)
	return LevelTable{levels: out}, nil
}

// Levels returns a copy of the bands.
func (t LevelTable) Levels() []Level {
	out := make([]Level, len(t.levels))
	copy(out, t.levels)
	return out
}

// Resolve returns the band with MinXP <= totalXP < MaxXP. Negative XP
// resolves to the first band.
func (t LevelTable) Resolve(totalXP int) Level {
	// First band whose MinXP is above totalXP; the one before it holds totalXP.
	i := sort.Search(len(t.levels), func(i int) bool { return t.levels[i].MinXP > totalXP })
	if i == 0 {
		return t.levels[0]
	}
	return t.levels[i-1]
}

// Next returns the band after level, if any.
func (t LevelTable) Next(level int) (Level, bool) {
	for i, l := range t.levels {
		if l.Level == level && i+1 < len(t.levels) {
			return t.levels[i+1], true
		}
	}
	return Level{}, false
}

// ByNumber looks up a band by its level number.
func (t LevelTable) ByNumber(level int) (Level, bool) {
	for _, l := range t.levels {
		if l.Level == level {
			return l, true
		}
	}
	return Level{}, false
}

// ProgressToNext returns how far totalXP is through its band towards the next
// one, in [0, 100]. The terminal band always reports 100.
func (t LevelTable) ProgressToNext(totalXP int) float64 {
	current := t.Resolve(totalXP)
	next, ok := t.Next(current.Level)
	if !ok {
		return 100
	}
	span := next.MinXP - current.MinXP
	pct := float64(totalXP-current.MinXP) / float64(span) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}
