package ics

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"agendacal/internal/datekey"
	"agendacal/internal/model"
)

// RecordOptions controls how occurrences become schedule records.
type RecordOptions struct {
	SourceID string
	// Kind is stamped on every item; feeds default to tasks.
	Kind model.Kind
	// Range clips the output. A zero Range keeps every day.
	Range datekey.Range
	// FetchedAt becomes CreatedAt/UpdatedAt of the records.
	FetchedAt time.Time
}

type occurrencePayload struct {
	Source      string `json:"source"`
	UID         string `json:"uid"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	AllDay      bool   `json:"allDay"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

// ToRecords groups occurrences into one record per calendar day of the
// display location. Timed occurrences land on their start day; all-day
// occurrences appear on every day they cover.
func ToRecords(occs []Occurrence, opts RecordOptions) []model.ScheduleRecord {
	if opts.Kind == "" {
		opts.Kind = model.KindTask
	}

	byDay := make(map[datekey.Key][]model.ScheduledItem)
	add := func(day datekey.Key, it model.ScheduledItem) {
		if opts.Range != (datekey.Range{}) && !opts.Range.Contains(day) {
			return
		}
		byDay[day] = append(byDay[day], it)
	}

	for _, occ := range occs {
		base := model.ScheduledItem{
			ID:      occ.SourceID + ":" + occ.UID + ":" + occ.InstanceKey,
			Kind:    opts.Kind,
			Status:  model.StatusPending,
			Title:   occ.Summary,
			Payload: payloadFor(occ),
		}

		if occ.AllDay {
			first := datekey.FromTime(occ.Start)
			span := max(1, datekey.DaysBetween(first, datekey.FromTime(occ.End)))
			for i := 0; i < span; i++ {
				it := base
				if span > 1 {
					it.ID = fmt.Sprintf("%s#%d", base.ID, i)
				}
				add(first.AddDays(i), it)
			}
			continue
		}

		it := base
		it.StartMinuteOfDay = model.IntPtr(occ.Start.Hour()*60 + occ.Start.Minute())
		if mins := int(math.Ceil(occ.End.Sub(occ.Start).Minutes())); mins > 0 {
			it.DurationMinutes = model.IntPtr(mins)
		}
		add(datekey.FromTime(occ.Start), it)
	}

	out := make([]model.ScheduleRecord, 0, len(byDay))
	for day, items := range byDay {
		sortByStart(items)
		out = append(out, model.ScheduleRecord{
			ID:        opts.SourceID + "-" + string(day),
			DateKey:   day,
			CreatedAt: opts.FetchedAt,
			UpdatedAt: opts.FetchedAt,
			Items:     items,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out
}

// sortByStart orders all-day items first, then timed items by start minute.
func sortByStart(items []model.ScheduledItem) {
	sort.SliceStable(items, func(i, j int) bool {
		mi, ti := items[i].StartMinute()
		mj, tj := items[j].StartMinute()
		if ti != tj {
			return !ti
		}
		return mi < mj
	})
}

func payloadFor(occ Occurrence) json.RawMessage {
	data, err := json.Marshal(occurrencePayload{
		Source:      occ.SourceID,
		UID:         occ.UID,
		Location:    occ.Location,
		Description: occ.Description,
		AllDay:      occ.AllDay,
		Start:       occ.Start.Format(time.RFC3339),
		End:         occ.End.Format(time.RFC3339),
	})
	if err != nil {
		return nil
	}
	return data
}

// FeedRecords parses one feed body and expands it over window, whose days
// are read as calendar days of loc.
func FeedRecords(src Source, body []byte, window datekey.Range, loc *time.Location, kind model.Kind, fetchedAt time.Time) ([]model.ScheduleRecord, error) {
	if loc == nil {
		loc = time.UTC
	}
	events, err := ParseICS(src, body)
	if err != nil {
		return nil, err
	}

	startDay, endDay := window.Start.Time(), window.End.Time()
	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      time.Date(startDay.Year(), startDay.Month(), startDay.Day(), 0, 0, 0, 0, loc),
		RangeEnd:        time.Date(endDay.Year(), endDay.Month(), endDay.Day()+1, 0, 0, 0, 0, loc).Add(-time.Nanosecond),
	})
	if err != nil {
		return nil, err
	}

	return ToRecords(res.Occurrences, RecordOptions{
		SourceID:  src.ID,
		Kind:      kind,
		Range:     window,
		FetchedAt: fetchedAt,
	}), nil
}
