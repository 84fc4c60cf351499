package progression

import (
	"errors"
	"sort"
	"time"
)

// Layouts accepted for workout dates. Zone-less layouts are read in the
// caller's location.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ComputeStreak returns the number of consecutive calendar days, ending at the
// most recent day in dates, that contain at least one workout. Days are taken
// in loc (time.Local when nil). Unparsable dates are skipped and reported in
// the returned error; the streak is still computed from the rest.
func ComputeStreak(dates []string, loc *time.Location) (int, error) {
	current, _, err := Streaks(dates, loc)
	return current, err
}

// LongestStreak returns the longest run of consecutive workout days anywhere in dates.
func LongestStreak(dates []string, loc *time.Location) (int, error) {
	_, longest, err := Streaks(dates, loc)
	return longest, err
}

// Streaks parses dates once and returns both the current and the longest run.
func Streaks(dates []string, loc *time.Location) (current, longest int, err error) {
	days, err := workoutDays(dates, loc)
	if len(days) == 0 {
		return 0, 0, err
	}

	current, longest = 1, 1
	run, broken := 1, false
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, -1)) {
			run++
		} else {
			run = 1
			broken = true
		}
		if !broken {
			current = run
		}
		longest = max(longest, run)
	}
	return current, longest, err
}

// workoutDays normalizes dates to unique calendar days, most recent first.
// Days are returned as UTC midnights so AddDate arithmetic ignores DST shifts.
func workoutDays(dates []string, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	var errs []error
	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for i, raw := range dates {
		t, err := parseDate(raw, loc)
		if err != nil {
			errs = append(errs, &TimestampError{Index: i, Value: raw, Err: err})
			continue
		}
		y, m, d := t.In(loc).Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, errors.Join(errs...)
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
