package model

import (
	"encoding/json"
	"fmt"
	"time"

	"agendacal/internal/datekey"
)

// MinutesPerDay bounds StartMinuteOfDay.
const MinutesPerDay = 24 * 60

// Kind says where a scheduled item came from.
type Kind string

const (
	KindTask    Kind = "task"
	KindRoutine Kind = "routine"
	KindStep    Kind = "step"
	KindSleep   Kind = "sleep"
)

// Kinds lists every kind in the order the list query concatenates them.
var Kinds = []Kind{KindTask, KindRoutine, KindStep, KindSleep}

// ParseKind validates s against Kinds.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Status is the completion state of a scheduled item.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusCompleted  Status = "COMPLETED"
	StatusUnfinished Status = "UNFINISHED"
	StatusSkipped    Status = "SKIPPED"
)

// ScheduledItem is a unit of work placed on one calendar day.
type ScheduledItem struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	Status Status `json:"status,omitempty"`

	// Title is the task title; RoutineName is set for routine-derived items.
	// Text search matches against both.
	Title       string `json:"title,omitempty"`
	RoutineName string `json:"routineName,omitempty"`

	// StartMinuteOfDay is nil for all-day / unscheduled items.
	StartMinuteOfDay *int `json:"startMinuteOfDay"`
	DurationMinutes  *int `json:"durationMinutes"`

	// Payload is carried through the engine untouched.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StartMinute returns the item's minute of day and whether it counts as
// timed. Values outside [0, 1440) are treated as unscheduled so one bad
// upstream record cannot break a view.
func (it ScheduledItem) StartMinute() (int, bool) {
	if it.StartMinuteOfDay == nil {
		return 0, false
	}
	m := *it.StartMinuteOfDay
	if m < 0 || m >= MinutesPerDay {
		return 0, false
	}
	return m, true
}

// IsAllDay reports whether the item has no usable time of day.
func (it ScheduledItem) IsAllDay() bool {
	_, ok := it.StartMinute()
	return !ok
}

// Duration returns DurationMinutes, or def when it is unset.
func (it ScheduledItem) Duration(def int) int {
	if it.DurationMinutes == nil {
		return def
	}
	return *it.DurationMinutes
}

// DisplayTitle prefers the task title, then the routine name.
func (it ScheduledItem) DisplayTitle() string {
	switch {
	case it.Title != "":
		return it.Title
	case it.RoutineName != "":
		return it.RoutineName
	default:
		return "Untitled Item"
	}
}

// ScheduleRecord aggregates one calendar day's items.
type ScheduleRecord struct {
	ID        string          `json:"id"`
	DateKey   datekey.Key     `json:"date"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Items     []ScheduledItem `json:"items"`
}

// HourSlot holds the timed items that start within one hour of the day.
type HourSlot struct {
	Hour          int             `json:"hour"`
	Label         string          `json:"label"`
	IsCurrentHour bool            `json:"isCurrentHour"`
	Items         []ScheduledItem `json:"items"`
}

// LaidOutItem places a timed item into one of LaneCount side-by-side lanes.
type LaidOutItem struct {
	Item            ScheduledItem `json:"item"`
	StartMinute     int           `json:"startMinute"`
	DurationMinutes int           `json:"durationMinutes"`
	LaneIndex       int           `json:"laneIndex"`
	LaneCount       int           `json:"laneCount"`
}

// MonthCell is one day of a month grid.
type MonthCell struct {
	DateKey        datekey.Key     `json:"date"`
	Label          string          `json:"label"`
	IsToday        bool            `json:"isToday"`
	IsCurrentMonth bool            `json:"isCurrentMonth"`
	VisibleItems   []ScheduledItem `json:"items"`
	OverflowCount  int             `json:"overflowCount"`
}

// IntPtr is a convenience for building items with a start or duration.
func IntPtr(v int) *int { return &v }
