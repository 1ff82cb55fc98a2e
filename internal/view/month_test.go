package view

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendacal/internal/datekey"
	"agendacal/internal/model"
)

func TestProjectMonth(t *testing.T) {
	days := []MonthDay{
		{
			DateKey:     "2024-05-31",
			AllDayItems: []model.ScheduledItem{allDay("prev")},
		},
		{
			DateKey:     "2024-06-01",
			AllDayItems: []model.ScheduledItem{allDay("a1"), allDay("a2")},
			TimedItems:  []model.ScheduledItem{timed("t1", 60), timed("t2", 120), timed("t3", 180)},
		},
		{DateKey: "2024-06-02"},
	}

	cells := ProjectMonth(days, "2024-06-15", 3, "2024-06-01")
	require.Len(t, cells, 3)

	assert.False(t, cells[0].IsCurrentMonth)
	assert.False(t, cells[0].IsToday)
	assert.Equal(t, "31", cells[0].Label)
	assert.Equal(t, 0, cells[0].OverflowCount)

	assert.True(t, cells[1].IsCurrentMonth)
	assert.True(t, cells[1].IsToday)
	assert.Equal(t, "1", cells[1].Label)
	assert.Equal(t, []string{"a1", "a2", "t1"}, ids(cells[1].VisibleItems))
	assert.Equal(t, 2, cells[1].OverflowCount)

	assert.Empty(t, cells[2].VisibleItems)
	assert.NotNil(t, cells[2].VisibleItems)
	assert.Equal(t, 0, cells[2].OverflowCount)
}

func TestProjectMonthOverflowArithmetic(t *testing.T) {
	for total := 0; total <= 6; total++ {
		for maxVisible := 0; maxVisible <= 4; maxVisible++ {
			var items []model.ScheduledItem
			for i := 0; i < total; i++ {
				items = append(items, allDay(fmt.Sprint(i)))
			}
			cells := ProjectMonth([]MonthDay{{DateKey: "2024-06-03", AllDayItems: items}}, "2024-06-03", maxVisible, "")
			require.Len(t, cells, 1)
			assert.Equal(t, max(0, total-maxVisible), cells[0].OverflowCount)
			assert.Len(t, cells[0].VisibleItems, min(total, maxVisible))
		}
	}
}

func TestProjectMonthNegativeMaxVisible(t *testing.T) {
	cells := ProjectMonth([]MonthDay{{DateKey: "2024-06-03", AllDayItems: []model.ScheduledItem{allDay("a")}}}, "2024-06-03", -2, "")
	assert.Empty(t, cells[0].VisibleItems)
	assert.Equal(t, 1, cells[0].OverflowCount)
}

func TestProjectMonthYearMatters(t *testing.T) {
	cells := ProjectMonth([]MonthDay{{DateKey: "2023-06-10"}}, datekey.Key("2024-06-10"), 3, "")
	assert.False(t, cells[0].IsCurrentMonth)
}
