package progress

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeStreakEmpty(t *testing.T) {
	current, longest := ComputeStreak(nil, day("2026-08-29"))
	if current != 0 || longest != 0 {
		t.Errorf("got current=%d longest=%d, want 0, 0", current, longest)
	}
}

func TestComputeStreakEndingToday(t *testing.T) {
	days := []string{"2026-08-27", "2026-08-28", "2026-08-29"}
	current, longest := ComputeStreak(days, day("2026-08-29").Add(18*time.Hour))
	if current != 3 {
		t.Errorf("current = %d, want 3", current)
	}
	if longest != 3 {
		t.Errorf("longest = %d, want 3", longest)
	}
}

func TestComputeStreakTodayStillOpen(t *testing.T) {
	// Nothing completed today yet, but the run through yesterday holds.
	days := []string{"2026-08-26", "2026-08-27", "2026-08-28"}
	current, _ := ComputeStreak(days, day("2026-08-29").Add(9*time.Hour))
	if current != 3 {
		t.Errorf("current = %d, want 3", current)
	}
}

func TestComputeStreakFullDayGapResets(t *testing.T) {
	// Last completion two days ago: streak is over.
	days := []string{"2026-08-25", "2026-08-26", "2026-08-27"}
	current, longest := ComputeStreak(days, day("2026-08-29"))
	if current != 0 {
		t.Errorf("current = %d, want 0", current)
	}
	if longest != 3 {
		t.Errorf("longest = %d, want 3", longest)
	}
}

func TestComputeStreakLongestInThePast(t *testing.T) {
	days := []string{
		"2026-08-01", "2026-08-02", "2026-08-03", "2026-08-04", "2026-08-05",
		"2026-08-28", "2026-08-29",
	}
	current, longest := ComputeStreak(days, day("2026-08-29"))
	if current != 2 {
		t.Errorf("current = %d, want 2", current)
	}
	if longest != 5 {
		t.Errorf("longest = %d, want 5", longest)
	}
}

func TestComputeStreakDuplicateDays(t *testing.T) {
	// Several completions on one day count once.
	days := []string{"2026-08-28", "2026-08-28", "2026-08-29", "2026-08-29"}
	current, longest := ComputeStreak(days, day("2026-08-29"))
	if current != 2 {
		t.Errorf("current = %d, want 2", current)
	}
	if longest != 2 {
		t.Errorf("longest = %d, want 2", longest)
	}
}

func TestComputeStreakSingleDay(t *testing.T) {
	current, longest := ComputeStreak([]string{"2026-08-29"}, day("2026-08-29"))
	if current != 1 || longest != 1 {
		t.Errorf("got current=%d longest=%d, want 1, 1", current, longest)
	}
}

func TestWeekStart(t *testing.T) {
	// 2026-08-29 is a Saturday; the week began Sunday the 23rd.
	ws := WeekStart(day("2026-08-29").Add(13 * time.Hour))
	if got := CivilDate(ws); got != "2026-08-23" {
		t.Errorf("week start = %s, want 2026-08-23", got)
	}
	if ws.Hour() != 0 || ws.Minute() != 0 {
		t.Errorf("week start not at midnight: %v", ws)
	}

	// A Sunday maps to itself.
	ws = WeekStart(day("2026-08-23").Add(5 * time.Hour))
	if got := CivilDate(ws); got != "2026-08-23" {
		t.Errorf("sunday week start = %s, want 2026-08-23", got)
	}
}

func TestMonthStart(t *testing.T) {
	ms := MonthStart(day("2026-08-29"))
	if got := CivilDate(ms); got != "2026-08-01" {
		t.Errorf("month start = %s, want 2026-08-01", got)
	}
}
