package agenda

import (
	"agendacal/internal/datekey"
	"agendacal/internal/model"
)

// PlaceholderID is the synthetic record ID used for a day with no data.
func PlaceholderID(day datekey.Key) string {
	return "empty-" + string(day)
}

// Placeholder returns an empty record for day, stamped with that day's UTC midnight.
func Placeholder(day datekey.Key) model.ScheduleRecord {
	midnight := day.Time()
	return model.ScheduleRecord{
		ID:        PlaceholderID(day),
		DateKey:   day,
		CreatedAt: midnight,
		UpdatedAt: midnight,
		Items:     []model.ScheduledItem{},
	}
}

// Fill returns exactly one record for every day in [start, end], in
// ascending order. Days present in merged are passed through unchanged;
// missing days get a Placeholder. Records outside the range are dropped.
//
// merged is expected to be Merge output; if a date still repeats, the
// last record for it wins.
func Fill(merged []model.ScheduleRecord, start, end datekey.Key) ([]model.ScheduleRecord, error) {
	if _, err := datekey.Parse(string(start)); err != nil {
		return nil, err
	}
	if _, err := datekey.Parse(string(end)); err != nil {
		return nil, err
	}
	if start > end {
		return nil, &InvalidRangeError{Start: start, End: end}
	}

	byDate := make(map[datekey.Key]model.ScheduleRecord, len(merged))
	for _, rec := range merged {
		byDate[rec.DateKey] = rec
	}

	days := datekey.Range{Start: start, End: end}.Days()
	out := make([]model.ScheduleRecord, 0, len(days))
	for _, day := range days {
		if rec, ok := byDate[day]; ok {
			out = append(out, rec)
			continue
		}
		out = append(out, Placeholder(day))
	}
	return out, nil
}
