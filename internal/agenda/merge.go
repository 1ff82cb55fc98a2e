package agenda

import (
	"sort"

	"agendacal/internal/datekey"
	"agendacal/internal/model"
)

// Merge combines records that share a DateKey into one record per day and
// returns them in ascending date order.
//
// The first record seen for a date keeps its ID, CreatedAt and UpdatedAt;
// items of every record for that date are concatenated in input order.
// Items are not deduplicated. Inputs are not modified.
func Merge(records []model.ScheduleRecord) []model.ScheduleRecord {
	out := make([]model.ScheduleRecord, 0, len(records))
	index := make(map[datekey.Key]int, len(records))

	for _, rec := range records {
		if i, ok := index[rec.DateKey]; ok {
			out[i].Items = append(out[i].Items, rec.Items...)
			continue
		}
		rec.Items = append(make([]model.ScheduledItem, 0, len(rec.Items)), rec.Items...)
		index[rec.DateKey] = len(out)
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateKey < out[j].DateKey
	})
	return out
}
