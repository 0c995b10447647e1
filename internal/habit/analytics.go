// Package habit holds the habit statistics and the entry toggle rule.
// Everything here takes "today" as a calendar date from the caller and never reads the clock.
package habit

import (
	"time"

	"cloud.google.com/go/civil"

	"lifeboard/internal/model"
)

const (
	// RateWindowDays 完成率窗口: [today-30, today]
	RateWindowDays = 30
	// StreakLookback caps how far back a streak scan walks.
	StreakLookback = 365
)

// Tracked pairs a habit with its entries for the cross-habit streak.
type Tracked struct {
	Habit   model.Habit
	Entries []model.HabitEntry
}

// Summary 仪表盘习惯汇总
type Summary struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	CurrentStreak  int `json:"current_streak"`
	CompletionRate int `json:"completion_rate"`
}

// Stats is the per-habit view served by /habits/stats.
type Stats struct {
	HabitID        int64  `json:"habit_id"`
	Name           string `json:"name"`
	CompletionRate int    `json:"completion_rate"`
	CurrentStreak  int    `json:"current_streak"`
	Completed      int    `json:"completed"`
	Tracked        int    `json:"tracked"`
}

// Today converts an instant to the calendar day it falls on in loc.
func Today(now time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(now.In(loc))
}

func inWindow(date, today civil.Date) bool {
	d := today.DaysSince(date)
	return d >= 0 && d <= RateWindowDays
}

// CompletionRate returns the share of completed entries within the trailing window as a
// whole percentage, rounded half up. Incomplete entries only count toward the denominator.
func CompletionRate(entries []model.HabitEntry, today civil.Date) int {
	var total, completed int
	for _, e := range entries {
		if !inWindow(e.Date, today) {
			continue
		}
		total++
		if e.Completed {
			completed++
		}
	}
	return Percent(completed, total)
}

// Percent computes round(100*part/whole) half up, 0 for an empty whole.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return (200*part + whole) / (2 * whole)
}

func completedDays(entries []model.HabitEntry, into map[civil.Date]struct{}) {
	for _, e := range entries {
		if e.Completed {
			into[e.Date] = struct{}{}
		}
	}
}

func streak(done map[civil.Date]struct{}, today civil.Date) int {
	n := 0
	for i := 0; i < StreakLookback; i++ {
		if _, ok := done[today.AddDays(-i)]; !ok {
			break
		}
		n++
	}
	return n
}

// CurrentStreak counts consecutive completed days ending today. A missing today yields 0.
func CurrentStreak(entries []model.HabitEntry, today civil.Date) int {
	done := make(map[civil.Date]struct{}, len(entries))
	completedDays(entries, done)
	return streak(done, today)
}

// CombinedStreak is CurrentStreak where a day counts if any habit was completed on it.
func CombinedStreak(tracked []Tracked, today civil.Date) int {
	done := make(map[civil.Date]struct{})
	for _, t := range tracked {
		completedDays(t.Entries, done)
	}
	return streak(done, today)
}

// Summarize builds the dashboard summary over every habit and the full entry set.
func Summarize(habits []model.Habit, entries []model.HabitEntry, today civil.Date) Summary {
	return Summary{
		Total:          len(habits),
		Active:         len(habits),
		CurrentStreak:  CombinedStreak(Group(habits, entries), today),
		CompletionRate: CompletionRate(entries, today),
	}
}

// Group buckets entries under their habit, keeping the habit order. Entries of unknown habits are dropped.
func Group(habits []model.Habit, entries []model.HabitEntry) []Tracked {
	idx := make(map[int64]int, len(habits))
	out := make([]Tracked, len(habits))
	for i, h := range habits {
		idx[h.ID] = i
		out[i].Habit = h
	}
	for _, e := range entries {
		if i, ok := idx[e.HabitID]; ok {
			out[i].Entries = append(out[i].Entries, e)
		}
	}
	return out
}

// PerHabit computes Stats for every habit.
func PerHabit(habits []model.Habit, entries []model.HabitEntry, today civil.Date) []Stats {
	groups := Group(habits, entries)
	out := make([]Stats, 0, len(groups))
	for _, g := range groups {
		s := Stats{
			HabitID:        g.Habit.ID,
			Name:           g.Habit.Name,
			CompletionRate: CompletionRate(g.Entries, today),
			CurrentStreak:  CurrentStreak(g.Entries, today),
		}
		for _, e := range g.Entries {
			if !inWindow(e.Date, today) {
				continue
			}
			s.Tracked++
			if e.Completed {
				s.Completed++
			}
		}
		out = append(out, s)
	}
	return out
}

// CompletedOn counts habits with a completed entry on day.
func CompletedOn(entries []model.HabitEntry, day civil.Date) int {
	seen := make(map[int64]struct{})
	for _, e := range entries {
		if e.Completed && e.Date == day {
			seen[e.HabitID] = struct{}{}
		}
	}
	return len(seen)
}
