package view

import (
	"agendacal/internal/datekey"
	"agendacal/internal/model"
)

// DefaultMaxMonthItems is how many items a month cell shows before "+N more".
const DefaultMaxMonthItems = 3

// MonthDay is the per-day input of ProjectMonth.
type MonthDay struct {
	DateKey     datekey.Key
	AllDayItems []model.ScheduledItem
	TimedItems  []model.ScheduledItem
}

// ProjectMonth builds one cell per day. All-day items are listed before
// timed ones, the first maxVisible are shown and the rest are counted in
// OverflowCount. today is captured once by the caller so every cell agrees.
func ProjectMonth(days []MonthDay, anchor datekey.Key, maxVisible int, today datekey.Key) []model.MonthCell {
	maxVisible = max(maxVisible, 0)
	cells := make([]model.MonthCell, 0, len(days))
	for _, d := range days {
		all := make([]model.ScheduledItem, 0, len(d.AllDayItems)+len(d.TimedItems))
		all = append(all, d.AllDayItems...)
		all = append(all, d.TimedItems...)

		visible := all[:min(len(all), maxVisible)]
		cells = append(cells, model.MonthCell{
			DateKey:        d.DateKey,
			Label:          d.DateKey.DayOfMonthLabel(),
			IsToday:        d.DateKey == today,
			IsCurrentMonth: datekey.SameMonth(d.DateKey, anchor),
			VisibleItems:   visible,
			OverflowCount:  max(0, len(all)-maxVisible),
		})
	}
	return cells
}
