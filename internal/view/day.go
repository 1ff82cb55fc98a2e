package view

import (
	"fmt"

	"agendacal/internal/model"
)

// HoursPerDay is the number of slots in a day projection.
const HoursPerDay = 24

// NoCurrentHour disables the current-hour marker in ProjectDay.
const NoCurrentHour = -1

// HourLabel formats an hour of day on a 12-hour clock: 0 -> "12 AM", 13 -> "1 PM".
func HourLabel(hour int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d %s", h, suffix)
}

// DayProjection splits one day's items for the hourly day view.
type DayProjection struct {
	AllDay []model.ScheduledItem `json:"allDay"`
	Timed  []model.ScheduledItem `json:"timed"`
	Hours  []model.HourSlot      `json:"hours"`
}

// ProjectDay partitions items into all-day and timed, and buckets timed
// items into 24 hour slots by floor(startMinute/60). Input order is kept
// inside each partition and each slot. currentHour, when in 0..23, flags
// that slot; pass NoCurrentHour when the day is not today.
func ProjectDay(items []model.ScheduledItem, currentHour int) DayProjection {
	p := DayProjection{
		AllDay: []model.ScheduledItem{},
		Timed:  []model.ScheduledItem{},
		Hours:  make([]model.HourSlot, HoursPerDay),
	}
	for h := range p.Hours {
		p.Hours[h] = model.HourSlot{
			Hour:          h,
			Label:         HourLabel(h),
			IsCurrentHour: h == currentHour,
			Items:         []model.ScheduledItem{},
		}
	}

	for _, it := range items {
		m, ok := it.StartMinute()
		if !ok {
			p.AllDay = append(p.AllDay, it)
			continue
		}
		p.Timed = append(p.Timed, it)
		slot := &p.Hours[m/60]
		slot.Items = append(slot.Items, it)
	}
	return p
}
