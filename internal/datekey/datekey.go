// Package datekey implements calendar-day identifiers in YYYY-MM-DD form.
//
// All arithmetic is done on UTC midnights, so a Key never shifts across a
// DST transition or a host timezone change. Converting an instant to a Key
// is the caller's business: put the time.Time into the zone whose calendar
// day you mean, then call FromTime.
package datekey

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the time layout of a Key.
const Layout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// ErrInvalid is returned (wrapped) for strings that are not a YYYY-MM-DD date.
var ErrInvalid = errors.New("invalid date key")

// Key identifies one calendar day. Lexicographic order equals chronological
// order, so Keys can be compared with < and sorted as strings.
type Key string

// Parse validates s and returns it as a Key. Only the canonical zero-padded
// form is accepted: "2024-6-1" and "2024-02-30" are rejected.
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(Layout, s)
	if err != nil || t.Format(Layout) != s {
		return "", fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return Key(s), nil
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Key {
	return Key(t.Format(Layout))
}

// Today returns the calendar day of now as observed in loc. A nil loc means UTC.
func Today(now time.Time, loc *time.Location) Key {
	if loc == nil {
		loc = time.UTC
	}
	return FromTime(now.In(loc))
}

func (k Key) String() string { return string(k) }

// Time returns the UTC midnight that starts k. An invalid Key yields the zero time.
func (k Key) Time() time.Time {
	t, err := time.Parse(Layout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Valid reports whether k is a well-formed key.
func (k Key) Valid() bool {
	_, err := Parse(string(k))
	return err == nil
}

// AddDays moves k by n calendar days (n may be negative).
func (k Key) AddDays(n int) Key {
	return FromTime(k.Time().AddDate(0, 0, n))
}

func (k Key) Year() int             { return k.Time().Year() }
func (k Key) Month() time.Month     { return k.Time().Month() }
func (k Key) Day() int              { return k.Time().Day() }
func (k Key) Weekday() time.Weekday { return k.Time().Weekday() }

// Before reports whether k is strictly earlier than other.
func (k Key) Before(other Key) bool { return k < other }

// After reports whether k is strictly later than other.
func (k Key) After(other Key) bool { return k > other }

// DaysBetween returns the number of calendar days from a to b.
// It is negative when b is before a. Counting in Unix seconds keeps spans
// longer than time.Duration's ~292 years exact.
func DaysBetween(a, b Key) int {
	return int((b.Time().Unix() - a.Time().Unix()) / secondsPerDay)
}

// SameMonth reports whether a and b fall in the same year and month.
func SameMonth(a, b Key) bool {
	ta, tb := a.Time(), b.Time()
	return ta.Year() == tb.Year() && ta.Month() == tb.Month()
}

// MonthStart returns the first day of k's month.
func (k Key) MonthStart() Key {
	t := k.Time()
	return FromTime(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC))
}

// MonthEnd returns the last day of k's month.
func (k Key) MonthEnd() Key {
	t := k.Time()
	return FromTime(time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC))
}

// DayOfMonthLabel is the bare day number, e.g. "7".
func (k Key) DayOfMonthLabel() string {
	return fmt.Sprint(k.Day())
}

// ShortDayLabel is the upper-case three letter weekday, e.g. "MON".
func (k Key) ShortDayLabel() string {
	return strings.ToUpper(k.Weekday().String()[:3])
}
