package progression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger() *Ledger {
	return NewLedger(DefaultXPSources(), DefaultLevelTable())
}

func TestLedger_AwardIsNotDeduplicated(t *testing.T) {
	ledger := newTestLedger()
	amount := DefaultXPSources()[ActionWorkoutCompleted].Amount
	stats := NewStats()

	first, err := ledger.Award(ActionWorkoutCompleted, stats)
	require.NoError(t, err)
	second, err := ledger.Award(ActionWorkoutCompleted, first.Stats)
	require.NoError(t, err)

	assert.Equal(t, 2*amount, second.Stats.TotalXP)
	assert.Equal(t, 2*amount, second.Stats.CurrentXP)
}

func TestLedger_AwardDetectsLevelUp(t *testing.T) {
	ledger := newTestLedger()
	stats := NewStats()
	stats.TotalXP = 90

	res, err := ledger.Award(ActionWorkoutCompleted, stats)
	require.NoError(t, err)

	assert.True(t, res.LeveledUp)
	assert.Equal(t, 1, res.From.Level)
	assert.Equal(t, 2, res.To.Level)
	assert.Equal(t, 2, res.Stats.Level)
	assert.Equal(t, 140, res.Stats.TotalXP)
}

func TestLedger_AwardWithinBand(t *testing.T) {
	ledger := newTestLedger()
	stats := NewStats()

	res, err := ledger.Award(ActionWorkoutCompleted, stats)
	require.NoError(t, err)

	assert.False(t, res.LeveledUp)
	assert.Equal(t, res.From, res.To)
	assert.Equal(t, 1, res.Stats.Level)
}

func TestLedger_UnknownActionLeavesStatsUntouched(t *testing.T) {
	ledger := newTestLedger()
	stats := NewStats()
	stats.TotalXP = 42

	res, err := ledger.Award(XPAction("logged_in"), stats)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownXPAction)

	var actionErr *ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, XPAction("logged_in"), actionErr.Action)
	assert.Equal(t, 42, res.Stats.TotalXP)
	assert.Equal(t, 42, stats.TotalXP)
}

func TestLedger_AwardAmount(t *testing.T) {
	ledger := newTestLedger()
	stats := NewStats()

	res := ledger.AwardAmount(300, stats)

	assert.Equal(t, 300, res.Amount)
	assert.Equal(t, 300, res.Stats.TotalXP)
	assert.Equal(t, 3, res.Stats.Level)
	assert.True(t, res.LeveledUp)
}

func TestNewLedger_CopiesSources(t *testing.T) {
	sources := DefaultXPSources()
	ledger := NewLedger(sources, DefaultLevelTable())
	delete(sources, ActionWorkoutCompleted)

	_, err := ledger.Award(ActionWorkoutCompleted, NewStats())
	assert.NoError(t, err)
}
