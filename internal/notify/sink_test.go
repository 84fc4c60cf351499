package notify

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_OneGuardPerUser(t *testing.T) {
	inbox := NewInbox(10, func() time.Time { return t0 })
	reg := NewRegistry(DefaultOptions(), inbox.For)

	a := reg.For("user-a")
	assert.Same(t, a, reg.For("user-a"))
	assert.NotSame(t, a, reg.For("user-b"))

	require.True(t, a.TryFire("badge_x", "Badge", "desc", t0))
	require.True(t, reg.For("user-b").TryFire("badge_x", "Badge", "desc", t0), "guards do not share state")

	got := inbox.List("user-a")
	require.Len(t, got, 1)
	assert.Equal(t, "user-a", got[0].UserID)
	assert.Equal(t, "Badge", got[0].Title)
	assert.Equal(t, "desc", got[0].Description)
	assert.Equal(t, t0, got[0].DeliveredAt)
}

func TestInbox_BoundedNewestFirst(t *testing.T) {
	inbox := NewInbox(2, nil)
	sink := inbox.For("u")
	sink.Show("one", "")
	sink.Show("two", "")
	sink.Show("three", "")

	got := inbox.List("u")
	require.Len(t, got, 2)
	assert.Equal(t, "three", got[0].Title)
	assert.Equal(t, "two", got[1].Title)
	assert.Empty(t, inbox.List("nobody"))
}

func TestMultiSinkAndLogSink(t *testing.T) {
	var buf bytes.Buffer
	rec := &recordingSink{}
	sink := MultiSink{rec, LogSink{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}}

	sink.Show("Level 3 reached", "You are now Apprentice")

	assert.Equal(t, []string{"Level 3 reached"}, rec.titles)
	assert.Contains(t, buf.String(), `"title":"Level 3 reached"`)
}
