package progress

import (
	"sort"
	"time"
)

// DateLayout is the civil-date form used throughout: household-local
// year-month-day with no time component.
const DateLayout = "2006-01-02"

// CivilDate formats t as a civil date in t's location.
func CivilDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ComputeStreak computes the current and longest runs of consecutive days
// with at least one completion. days are civil dates (DateLayout, household
// timezone, duplicates fine); asOf is "now" in that same timezone.
//
// The current streak is anchored at asOf's day, but a day in progress does
// not break it: if today has no completion yet, the run is counted from
// yesterday instead, so a member who completed something every day through
// yesterday still shows an unbroken streak this morning.
func ComputeStreak(days []string, asOf time.Time) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}

	set := make(map[string]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}

	today := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	anchor := today
	if _, ok := set[CivilDate(anchor)]; !ok {
		anchor = anchor.AddDate(0, 0, -1)
	}
	for d := anchor; ; d = d.AddDate(0, 0, -1) {
		if _, ok := set[CivilDate(d)]; !ok {
			break
		}
		current++
	}

	unique := make([]string, 0, len(set))
	for d := range set {
		unique = append(unique, d)
	}
	sort.Strings(unique)

	run := 0
	var prev time.Time
	for i, d := range unique {
		day, err := time.Parse(DateLayout, d)
		if err != nil {
			continue
		}
		if i > 0 && day.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = day
	}

	return current, longest
}
