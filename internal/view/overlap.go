package view

import (
	"cmp"
	"slices"

	"agendacal/internal/model"
)

// LayoutInput is one timed item handed to Layout.
type LayoutInput struct {
	Item            model.ScheduledItem
	StartMinute     int
	DurationMinutes int
}

// interval is a half-open [start, end) span tied back to its input slot.
type interval struct {
	index int
	start int
	end   int
}

// lanes records, per lane index, the minute at which the lane becomes free.
type lanes []int

// place puts iv into the lowest free lane, opening a new one if every lane
// is still busy at iv.start. It returns the updated lanes and the chosen index;
// the receiver is left untouched.
func (l lanes) place(iv interval) (lanes, int) {
	next := slices.Clone(l)
	for i, freeAt := range next {
		if freeAt <= iv.start {
			next[i] = iv.end
			return next, i
		}
	}
	return append(next, iv.end), len(next)
}

// Layout assigns side-by-side lanes so that overlapping items never share
// one. Each item's LaneCount is the peak overlap depth of its own cluster of
// transitively overlapping items, not of the whole day.
//
// Durations below one minute are widened to one minute. Negative starts are
// laid out like any other integer. The result is index-aligned with items.
func Layout(items []LayoutInput) []model.LaidOutItem {
	out := make([]model.LaidOutItem, len(items))
	if len(items) == 0 {
		return out
	}

	sorted := make([]interval, len(items))
	for i, in := range items {
		sorted[i] = interval{index: i, start: in.StartMinute, end: in.StartMinute + max(in.DurationMinutes, 1)}
	}
	slices.SortStableFunc(sorted, func(a, b interval) int {
		return cmp.Compare(a.start, b.start)
	})

	laneOf := make([]int, len(items))
	state := lanes(nil)
	for _, iv := range sorted {
		var lane int
		state, lane = state.place(iv)
		laneOf[iv.index] = lane
	}

	// Walk clusters in start order. A cluster ends when the next start is at
	// or past the furthest end seen so far. Every lane is free at a cluster
	// boundary, so lanes restart at 0 and the peak depth is the highest lane
	// used plus one.
	countOf := make([]int, len(items))
	for first := 0; first < len(sorted); {
		last := first
		reach := sorted[first].end
		peak := laneOf[sorted[first].index]
		for last+1 < len(sorted) && sorted[last+1].start < reach {
			last++
			reach = max(reach, sorted[last].end)
			peak = max(peak, laneOf[sorted[last].index])
		}
		for _, iv := range sorted[first : last+1] {
			countOf[iv.index] = peak + 1
		}
		first = last + 1
	}

	for i, in := range items {
		out[i] = model.LaidOutItem{
			Item:            in.Item,
			StartMinute:     in.StartMinute,
			DurationMinutes: max(in.DurationMinutes, 1),
			LaneIndex:       laneOf[i],
			LaneCount:       countOf[i],
		}
	}
	return out
}
