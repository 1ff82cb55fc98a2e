package view

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendacal/internal/model"
)

func in(id string, start, dur int) LayoutInput {
	return LayoutInput{Item: model.ScheduledItem{ID: id}, StartMinute: start, DurationMinutes: dur}
}

func TestLayoutSpecScenario(t *testing.T) {
	got := Layout([]LayoutInput{
		in("a", 540, 60),
		in("b", 570, 30),
		in("c", 660, 30),
	})
	require.Len(t, got, 3)

	assert.Equal(t, "a", got[0].Item.ID)
	assert.Equal(t, 0, got[0].LaneIndex)
	assert.Equal(t, 2, got[0].LaneCount)

	assert.Equal(t, 1, got[1].LaneIndex)
	assert.Equal(t, 2, got[1].LaneCount)

	assert.Equal(t, 0, got[2].LaneIndex)
	assert.Equal(t, 1, got[2].LaneCount)
}

func TestLayoutEmpty(t *testing.T) {
	assert.Empty(t, Layout(nil))
}

func TestLayoutBackToBackDoesNotOverlap(t *testing.T) {
	got := Layout([]LayoutInput{in("a", 600, 30), in("b", 630, 30)})
	for _, l := range got {
		assert.Equal(t, 0, l.LaneIndex)
		assert.Equal(t, 1, l.LaneCount)
	}
}

func TestLayoutReusesFreedLane(t *testing.T) {
	// a: 9:00-11:00, b: 9:00-9:30, c: 9:30-10:00 takes b's lane back.
	got := Layout([]LayoutInput{in("a", 540, 120), in("b", 540, 30), in("c", 570, 30)})
	assert.Equal(t, []int{0, 1, 1}, []int{got[0].LaneIndex, got[1].LaneIndex, got[2].LaneIndex})
	for _, l := range got {
		assert.Equal(t, 2, l.LaneCount)
	}
}

func TestLayoutTiesKeepInputOrder(t *testing.T) {
	got := Layout([]LayoutInput{in("x", 600, 30), in("y", 600, 30), in("z", 600, 30)})
	assert.Equal(t, 0, got[0].LaneIndex)
	assert.Equal(t, 1, got[1].LaneIndex)
	assert.Equal(t, 2, got[2].LaneIndex)
}

func TestLayoutClampsDuration(t *testing.T) {
	got := Layout([]LayoutInput{in("zero", 600, 0), in("neg", 600, -15), in("later", 601, 10)})
	assert.Equal(t, 1, got[0].DurationMinutes)
	assert.Equal(t, 1, got[1].DurationMinutes)
	assert.NotEqual(t, got[0].LaneIndex, got[1].LaneIndex)
	assert.Equal(t, 2, got[0].LaneCount)
	// The one-minute items end at 601, so "later" starts a new cluster.
	assert.Equal(t, 0, got[2].LaneIndex)
	assert.Equal(t, 1, got[2].LaneCount)
}

func TestLayoutNegativeStart(t *testing.T) {
	got := Layout([]LayoutInput{in("a", -30, 60), in("b", 0, 10)})
	assert.Equal(t, 2, got[0].LaneCount)
	assert.NotEqual(t, got[0].LaneIndex, got[1].LaneIndex)
}

func TestLayoutIndependentClusters(t *testing.T) {
	got := Layout([]LayoutInput{
		in("a1", 60, 60), in("a2", 70, 60), in("a3", 80, 60),
		in("b1", 600, 30), in("b2", 610, 30),
	})
	for _, l := range got[:3] {
		assert.Equal(t, 3, l.LaneCount, l.Item.ID)
	}
	for _, l := range got[3:] {
		assert.Equal(t, 2, l.LaneCount, l.Item.ID)
	}
}

func TestLayoutMinimalityAtSingleInstant(t *testing.T) {
	for k := 1; k <= 8; k++ {
		inputs := make([]LayoutInput, k)
		for i := range inputs {
			// All cover minute 700.
			inputs[i] = in(fmt.Sprint(i), 700-i*5, 10+i*7)
		}
		for _, l := range Layout(inputs) {
			assert.Equal(t, k, l.LaneCount)
		}
	}
}

func overlaps(a, b model.LaidOutItem) bool {
	return a.StartMinute < b.StartMinute+b.DurationMinutes && b.StartMinute < a.StartMinute+a.DurationMinutes
}

// clusterDepth finds item i's transitive overlap cluster by brute force and
// returns the highest number of cluster members covering any one minute.
func clusterDepth(items []model.LaidOutItem, i int) int {
	member := map[int]bool{i: true}
	for changed := true; changed; {
		changed = false
		for j := range items {
			if member[j] {
				continue
			}
			for m := range member {
				if overlaps(items[j], items[m]) {
					member[j] = true
					changed = true
					break
				}
			}
		}
	}
	depth := 0
	for m := range member {
		at := items[m].StartMinute
		n := 0
		for o := range member {
			if items[o].StartMinute <= at && at < items[o].StartMinute+items[o].DurationMinutes {
				n++
			}
		}
		depth = max(depth, n)
	}
	return depth
}

func TestLayoutRandomizedProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := rng.Intn(15)
		inputs := make([]LayoutInput, n)
		for i := range inputs {
			inputs[i] = in(fmt.Sprint(i), rng.Intn(600), rng.Intn(120)-5)
		}

		got := Layout(inputs)
		require.Len(t, got, n)

		for i := range got {
			assert.Equal(t, inputs[i].Item.ID, got[i].Item.ID)
			assert.GreaterOrEqual(t, got[i].LaneCount, 1)
			assert.Less(t, got[i].LaneIndex, got[i].LaneCount)
			assert.Equal(t, clusterDepth(got, i), got[i].LaneCount, "round %d item %d", round, i)
			for j := i + 1; j < len(got); j++ {
				if overlaps(got[i], got[j]) {
					assert.NotEqual(t, got[i].LaneIndex, got[j].LaneIndex, "round %d items %d,%d", round, i, j)
					assert.Equal(t, got[i].LaneCount, got[j].LaneCount)
				}
			}
		}
	}
}
