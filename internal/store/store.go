// Package store keeps schedule records in memory, partitioned by user and
// by the source that produced them.
package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"agendacal/internal/datekey"
	"agendacal/internal/model"
)

// Filter selects records and items. Zero fields match everything.
type Filter struct {
	UserID string
	Start  datekey.Key
	End    datekey.Key
	Kind   model.Kind
	Status model.Status
}

func (f Filter) matchesDay(day datekey.Key) bool {
	if f.Start != "" && day.Before(f.Start) {
		return false
	}
	if f.End != "" && day.After(f.End) {
		return false
	}
	return true
}

func (f Filter) matchesItem(it model.ScheduledItem) bool {
	if f.Kind != "" && it.Kind != f.Kind {
		return false
	}
	if f.Status != "" && it.Status != f.Status {
		return false
	}
	return true
}

func (f Filter) filtersItems() bool { return f.Kind != "" || f.Status != "" }

// Memory is a concurrency-safe in-memory repository.
type Memory struct {
	mu sync.RWMutex
	// records[user][source]
	records map[string]map[string][]model.ScheduleRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]map[string][]model.ScheduleRecord)}
}

// Replace swaps every record of (user, source) for recs. Items without a
// kind are stored as tasks so per-kind queries still see them.
func (m *Memory) Replace(userID, sourceID string, recs []model.ScheduleRecord) {
	cp := slices.Clone(recs)
	for i := range cp {
		cp[i].Items = defaultKinds(cp[i].Items)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bySource, ok := m.records[userID]
	if !ok {
		bySource = make(map[string][]model.ScheduleRecord)
		m.records[userID] = bySource
	}
	bySource[sourceID] = cp
}

// defaultKinds returns items with empty kinds set to model.KindTask, copying
// only when something changes.
func defaultKinds(items []model.ScheduledItem) []model.ScheduledItem {
	if !slices.ContainsFunc(items, func(it model.ScheduledItem) bool { return it.Kind == "" }) {
		return items
	}
	out := slices.Clone(items)
	for i := range out {
		if out[i].Kind == "" {
			out[i].Kind = model.KindTask
		}
	}
	return out
}

// Sources lists the source IDs stored for userID, sorted.
func (m *Memory) Sources(userID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.records[userID]))
	for id := range m.records[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ListRecords returns the user's records inside the filter window. When the
// filter names a kind or status, each returned record carries only the
// matching items and records left empty are dropped.
//
// Records are ordered by date, then by source ID, so several raw records
// for one date stay in a stable order for merging.
func (m *Memory) ListRecords(ctx context.Context, f Filter) ([]model.ScheduleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	bySource := m.records[f.UserID]
	sources := make([]string, 0, len(bySource))
	for id := range bySource {
		sources = append(sources, id)
	}
	sort.Strings(sources)

	var out []model.ScheduleRecord
	for _, id := range sources {
		for _, rec := range bySource[id] {
			if !f.matchesDay(rec.DateKey) {
				continue
			}
			if f.filtersItems() {
				items := make([]model.ScheduledItem, 0, len(rec.Items))
				for _, it := range rec.Items {
					if f.matchesItem(it) {
						items = append(items, it)
					}
				}
				if len(items) == 0 {
					continue
				}
				rec.Items = items
			} else {
				rec.Items = slices.Clone(rec.Items)
			}
			out = append(out, rec)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out, nil
}
