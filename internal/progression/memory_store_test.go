package progression

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx, "user-1")
	assert.ErrorIs(t, err, ErrStateNotFound)

	state := State{Stats: NewStats(), LastProcessedCount: 3}
	state.Stats.TotalXP = 120
	require.NoError(t, store.Save(ctx, "user-1", state))

	// Mutating the saved value must not leak into the store.
	state.Stats.Badges[0].Unlocked = true

	got, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.LastProcessedCount)
	assert.Equal(t, 120, got.Stats.TotalXP)
	assert.False(t, got.Stats.Badges[0].Unlocked)
}

func TestMemoryStore_RequiresUser(t *testing.T) {
	store := NewMemoryStore()
	assert.ErrorIs(t, store.Save(context.Background(), "", State{}), ErrMissingUserID)
	_, err := store.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingUserID)
}
