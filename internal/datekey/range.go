package datekey

import (
	"fmt"
	"strings"
	"time"
)

// Range is an inclusive span of calendar days.
type Range struct {
	Start Key `json:"start"`
	End   Key `json:"end"`
}

// Len is the number of days in r, 0 when End is before Start.
func (r Range) Len() int {
	n := DaysBetween(r.Start, r.End) + 1
	if n < 0 {
		return 0
	}
	return n
}

// Days lists every day of r in ascending order.
func (r Range) Days() []Key {
	n := r.Len()
	out := make([]Key, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.Start.AddDays(i))
	}
	return out
}

// Contains reports whether k lies within r.
func (r Range) Contains(k Key) bool {
	return k >= r.Start && k <= r.End
}

// Mode is a calendar view granularity.
type Mode string

const (
	ModeDay   Mode = "day"
	ModeWeek  Mode = "week"
	ModeMonth Mode = "month"
)

// ParseMode accepts "day", "week" or "month" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeDay, ModeWeek, ModeMonth:
		return m, nil
	default:
		return "", fmt.Errorf("unknown view mode %q", s)
	}
}

// ParseWeekStart maps "sunday" to time.Sunday and anything else to time.Monday.
func ParseWeekStart(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// WeekStartOf returns the first day of the week containing k.
func WeekStartOf(k Key, weekStart time.Weekday) Key {
	offset := (int(k.Weekday()) - int(weekStart) + 7) % 7
	return k.AddDays(-offset)
}

// WeekRange is the seven-day week containing anchor.
func WeekRange(anchor Key, weekStart time.Weekday) Range {
	start := WeekStartOf(anchor, weekStart)
	return Range{Start: start, End: start.AddDays(6)}
}

// MonthGridRange covers whole weeks from the week holding the first of
// anchor's month through the week holding its last day.
func MonthGridRange(anchor Key, weekStart time.Weekday) Range {
	first := WeekStartOf(anchor.MonthStart(), weekStart)
	last := WeekStartOf(anchor.MonthEnd(), weekStart).AddDays(6)
	return Range{Start: first, End: last}
}

// RangeFor returns the days a view of the given mode shows around anchor.
func RangeFor(mode Mode, anchor Key, weekStart time.Weekday) Range {
	switch mode {
	case ModeWeek:
		return WeekRange(anchor, weekStart)
	case ModeMonth:
		return MonthGridRange(anchor, weekStart)
	default:
		return Range{Start: anchor, End: anchor}
	}
}

// Navigation holds the anchors for the previous/next buttons of a view.
type Navigation struct {
	Previous Key `json:"previous"`
	Next     Key `json:"next"`
	Today    Key `json:"today"`
}

// NavigationFor computes previous/next anchors. Week navigation snaps to the
// week start; month navigation snaps to the first of the month.
func NavigationFor(mode Mode, anchor, today Key, weekStart time.Weekday) Navigation {
	nav := Navigation{Today: today}
	switch mode {
	case ModeWeek:
		start := WeekStartOf(anchor, weekStart)
		nav.Previous = start.AddDays(-7)
		nav.Next = start.AddDays(7)
	case ModeMonth:
		t := anchor.MonthStart().Time()
		nav.Previous = FromTime(t.AddDate(0, -1, 0))
		nav.Next = FromTime(t.AddDate(0, 1, 0))
	default:
		nav.Previous = anchor.AddDays(-1)
		nav.Next = anchor.AddDays(1)
	}
	return nav
}

// WeekdayLabels returns "Mon".."Sun" (or "Sun".."Sat") starting at weekStart.
func WeekdayLabels(weekStart time.Weekday) []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = time.Weekday((int(weekStart) + i) % 7).String()[:3]
	}
	return out
}
