package view

import (
	"agendacal/internal/datekey"
	"agendacal/internal/model"
)

// DefaultDurationMinutes stands in for a missing duration in the week grid.
const DefaultDurationMinutes = 30

// WeekDay is one column of the week view.
type WeekDay struct {
	DateKey     datekey.Key           `json:"date"`
	Label       string                `json:"label"`
	ShortLabel  string                `json:"shortLabel"`
	IsToday     bool                  `json:"isToday"`
	AllDayItems []model.ScheduledItem `json:"allDayItems"`
	TimedItems  []model.LaidOutItem   `json:"timedItems"`
}

// LayoutTimed lays out one day's timed items, substituting defaultDuration
// for items without a duration. All-day items in the input are skipped.
func LayoutTimed(items []model.ScheduledItem, defaultDuration int) []model.LaidOutItem {
	inputs := make([]LayoutInput, 0, len(items))
	for _, it := range items {
		m, ok := it.StartMinute()
		if !ok {
			continue
		}
		inputs = append(inputs, LayoutInput{
			Item:            it,
			StartMinute:     m,
			DurationMinutes: it.Duration(defaultDuration),
		})
	}
	return Layout(inputs)
}

// ProjectWeekDay builds the week column for a single day.
func ProjectWeekDay(day datekey.Key, items []model.ScheduledItem, today datekey.Key, defaultDuration int) WeekDay {
	p := ProjectDay(items, NoCurrentHour)
	return WeekDay{
		DateKey:     day,
		Label:       day.DayOfMonthLabel(),
		ShortLabel:  day.ShortDayLabel(),
		IsToday:     day == today,
		AllDayItems: p.AllDay,
		TimedItems:  LayoutTimed(p.Timed, defaultDuration),
	}
}
