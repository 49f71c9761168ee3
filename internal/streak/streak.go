// Package streak derives a consecutive-day reading habit from session timestamps.
//
// A reading day is a local calendar day with at least one session. The current
// streak counts consecutive reading days ending today or yesterday; a most
// recent reading day older than yesterday means the habit is broken and the
// streak is zero.
package streak

import (
	"sort"
	"time"
)

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// ReadingDays collapses timestamps into distinct calendar days in loc,
// most recent first.
func ReadingDays(times []time.Time, loc *time.Location) []time.Time {
	seen := make(map[time.Time]struct{}, len(times))
	days := make([]time.Time, 0, len(times))
	for _, t := range times {
		day := StartOfDay(t.In(loc))
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

// Calculate returns the current streak as of now.
func Calculate(times []time.Time, now time.Time) int {
	days := ReadingDays(times, now.Location())
	if len(days) == 0 {
		return 0
	}

	today := StartOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	if !SameDay(days[0], today) && !SameDay(days[0], yesterday) {
		return 0
	}

	count := 1
	for i := 1; i < len(days); i++ {
		if !SameDay(days[i], days[i-1].AddDate(0, 0, -1)) {
			break
		}
		count++
	}
	return count
}

// Longest returns the longest run of consecutive reading days anywhere in times.
func Longest(times []time.Time, loc *time.Location) int {
	days := ReadingDays(times, loc)
	if len(days) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if SameDay(days[i], days[i-1].AddDate(0, 0, -1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
