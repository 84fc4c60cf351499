package workout

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type seqIDs struct{ n int }

func (g *seqIDs) NewID() string {
	g.n++
	return "w-" + strconv.Itoa(g.n)
}

func newTestService(t *testing.T, now time.Time) (*Service, Repository) {
	t.Helper()
	repo := NewMemoryRepository()
	svc, err := NewService(repo, fixedClock{now: now}, &seqIDs{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func TestServiceLog_DefaultsDateToNow(t *testing.T) {
	now := time.Date(2024, 3, 10, 7, 30, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	rec, err := svc.Log(context.Background(), CreateInput{
		UserID:    "user-1",
		Exercises: []Exercise{{Name: " Squat ", Sets: []Set{{Reps: 5, WeightKg: 100}}}},
	})
	if err != nil {
		t.Fatalf("Log returned error: %v", err)
	}
	if rec.ID != "w-1" {
		t.Fatalf("expected generated id, got %q", rec.ID)
	}
	if rec.Date != now.Format(time.RFC3339Nano) {
		t.Fatalf("expected date %s, got %s", now.Format(time.RFC3339Nano), rec.Date)
	}
	if rec.Exercises[0].Name != "Squat" {
		t.Fatalf("expected trimmed exercise name, got %q", rec.Exercises[0].Name)
	}
}

func TestServiceLog_RejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t, time.Now())

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"missing user", CreateInput{Exercises: []Exercise{{Name: "Run"}}}},
		{"no exercises", CreateInput{UserID: "u"}},
		{"unnamed exercise", CreateInput{UserID: "u", Exercises: []Exercise{{Name: ""}}}},
		{"negative reps", CreateInput{UserID: "u", Exercises: []Exercise{{Name: "Row", Sets: []Set{{Reps: -1}}}}}},
	}
	for _, tt := range tests {
		if _, err := svc.Log(context.Background(), tt.input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tt.name, err)
		}
	}
}

func TestServiceList_AppendOrderPerUser(t *testing.T) {
	svc, _ := newTestService(t, time.Now())
	ctx := context.Background()

	for _, user := range []string{"a", "b", "a"} {
		if _, err := svc.Log(ctx, CreateInput{UserID: user, Exercises: []Exercise{{Name: "Plank"}}}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	records, err := svc.List(ctx, "a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 || records[0].ID != "w-1" || records[1].ID != "w-3" {
		t.Fatalf("unexpected records for a: %+v", records)
	}

	if _, err := svc.List(ctx, ""); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
}

func TestMemoryRepository_RejectsDuplicateID(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	rec := Record{ID: "dup", UserID: "u"}
	if err := repo.Append(ctx, rec); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := repo.Append(ctx, rec); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRecord_VolumeAndSets(t *testing.T) {
	rec := Record{Exercises: []Exercise{
		{Name: "Bench", Sets: []Set{{Reps: 10, WeightKg: 60}, {Reps: 8, WeightKg: 70}}},
		{Name: "Pull-up", Sets: []Set{{Reps: 12}}},
	}}
	if got := rec.SetCount(); got != 3 {
		t.Fatalf("expected 3 sets, got %d", got)
	}
	if got := rec.Volume(); got != 1160 {
		t.Fatalf("expected volume 1160, got %v", got)
	}
}
