package query

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendacal/internal/agenda"
	"agendacal/internal/datekey"
	"agendacal/internal/model"
	"agendacal/internal/store"
)

func seeded() *store.Memory {
	m := store.NewMemory()
	m.Replace("alice", "app", []model.ScheduleRecord{
		{ID: "d1", DateKey: "2024-06-01", Items: []model.ScheduledItem{
			{ID: "r1", Kind: model.KindRoutine, RoutineName: "Morning Stretch", Status: model.StatusPending},
			{ID: "t1", Kind: model.KindTask, Title: "Write report", Status: model.StatusUnfinished},
		}},
		{ID: "d3", DateKey: "2024-06-03", Items: []model.ScheduledItem{
			{ID: "t2", Kind: model.KindTask, Title: "Groceries", Status: model.StatusPending},
			{ID: "z1", Kind: model.KindSleep, RoutineName: "Sleep", Status: model.StatusPending},
		}},
	})
	m.Replace("bob", "app", []model.ScheduleRecord{
		{ID: "b1", DateKey: "2024-06-02", Items: []model.ScheduledItem{{ID: "x", Kind: model.KindTask, Title: "Bob"}}},
	})
	return m
}

func ids(items []model.ScheduledItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestListFillsAndOrdersByKind(t *testing.T) {
	h := NewHandler(seeded(), 0)

	page, err := h.List(context.Background(), Params{UserID: "alice", StartDate: "2024-06-01", EndDate: "2024-06-04"})
	require.NoError(t, err)

	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, agenda.DefaultLimit, page.Limit)
	require.Len(t, page.Items, 4)

	assert.Equal(t, []string{"t1", "r1"}, ids(page.Items[0].Items), "tasks come before routines")
	assert.Equal(t, agenda.PlaceholderID("2024-06-02"), page.Items[1].ID)
	assert.Equal(t, []string{"t2", "z1"}, ids(page.Items[2].Items))
	assert.Empty(t, page.Items[3].Items)
}

func TestListWithoutBothDatesSkipsFill(t *testing.T) {
	h := NewHandler(seeded(), 0)

	page, err := h.List(context.Background(), Params{UserID: "alice", StartDate: "2024-06-02"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, datekey.Key("2024-06-03"), page.Items[0].DateKey)
	assert.Equal(t, 1, page.Total)
}

func TestListUnfinished(t *testing.T) {
	h := NewHandler(seeded(), 0)

	page, err := h.List(context.Background(), Params{UserID: "alice", Mode: ModeUnfinished})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, []string{"t1"}, ids(page.Items[0].Items))
}

func TestListTextFilter(t *testing.T) {
	h := NewHandler(seeded(), 0)

	page, err := h.List(context.Background(), Params{UserID: "alice", Query: "  STRETCH "})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, []string{"r1"}, ids(page.Items[0].Items))

	page, err = h.List(context.Background(), Params{UserID: "alice", Query: "groc", StartDate: "2024-06-01", EndDate: "2024-06-03"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Empty(t, page.Items[0].Items, "filtered-out day becomes a placeholder")
	assert.Equal(t, []string{"t2"}, ids(page.Items[2].Items))
}

func TestListLongestAllowedRange(t *testing.T) {
	h := NewHandler(seeded(), 1)
	end := datekey.Key("2024-06-01").AddDays(MaxRangeDays - 1)

	page, err := h.List(context.Background(), Params{UserID: "alice", StartDate: "2024-06-01", EndDate: string(end)})
	require.NoError(t, err)
	assert.Equal(t, MaxRangeDays, page.Total)

	_, err = h.List(context.Background(), Params{UserID: "alice", StartDate: "2024-06-01", EndDate: string(end.AddDays(1))})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestListKeepsItemsWithoutKind(t *testing.T) {
	m := store.NewMemory()
	m.Replace("u", "seed", []model.ScheduleRecord{
		{ID: "d", DateKey: "2024-06-01", Items: []model.ScheduledItem{{ID: "A", Title: "no kind"}}},
	})

	page, err := NewHandler(m, 0).List(context.Background(), Params{UserID: "u", Mode: ModeAll})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, []string{"A"}, ids(page.Items[0].Items))
}

func TestListPagination(t *testing.T) {
	h := NewHandler(seeded(), 2)

	page, err := h.List(context.Background(), Params{UserID: "alice", StartDate: "2024-06-01", EndDate: "2024-06-05", Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Items, 1)
	assert.Equal(t, datekey.Key("2024-06-05"), page.Items[0].DateKey)

	page, err = h.List(context.Background(), Params{UserID: "alice", StartDate: "2024-06-01", EndDate: "2024-06-05", Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 5, page.Total)
}

func TestListRejectsBadParams(t *testing.T) {
	h := NewHandler(seeded(), 0)
	ctx := context.Background()

	for name, p := range map[string]Params{
		"no user":   {},
		"bad mode":  {UserID: "alice", Mode: "later"},
		"bad start": {UserID: "alice", StartDate: "2024/06/01"},
		"bad end":   {UserID: "alice", EndDate: "2024-13-01"},
		"neg page":  {UserID: "alice", Page: -1},
		"neg limit": {UserID: "alice", Limit: -5},
		"too long":  {UserID: "alice", StartDate: "1700-01-01", EndDate: "2024-01-01"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := h.List(ctx, p)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}

	_, err := h.List(ctx, Params{UserID: "alice", StartDate: "2024-06-05", EndDate: "2024-06-01"})
	var rangeErr *agenda.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, datekey.Key("2024-06-05"), rangeErr.Start)
}

type recordingSource struct {
	mu      sync.Mutex
	filters []store.Filter
	failOn  model.Kind
}

func (s *recordingSource) ListRecords(_ context.Context, f store.Filter) ([]model.ScheduleRecord, error) {
	s.mu.Lock()
	s.filters = append(s.filters, f)
	s.mu.Unlock()
	if f.Kind != "" && f.Kind == s.failOn {
		return nil, errors.New("backend down")
	}
	return nil, nil
}

func TestFetchFansOutPerKind(t *testing.T) {
	src := &recordingSource{}
	h := NewHandler(src, 0)

	_, err := h.Window(context.Background(), "alice", datekey.Range{Start: "2024-06-01", End: "2024-06-07"})
	require.NoError(t, err)

	kinds := make([]model.Kind, 0, len(src.filters))
	for _, f := range src.filters {
		assert.Equal(t, "alice", f.UserID)
		assert.Equal(t, datekey.Key("2024-06-01"), f.Start)
		kinds = append(kinds, f.Kind)
	}
	assert.ElementsMatch(t, model.Kinds, kinds)
}

func TestFetchPropagatesErrors(t *testing.T) {
	h := NewHandler(&recordingSource{failOn: model.KindStep}, 0)
	_, err := h.List(context.Background(), Params{UserID: "alice"})
	assert.ErrorContains(t, err, "backend down")
	assert.NotErrorIs(t, err, ErrInvalidParams)
}

func TestFilterTextEmptyQuery(t *testing.T) {
	recs := []model.ScheduleRecord{{ID: "a", DateKey: "2024-06-01"}}
	assert.Equal(t, recs, FilterText(recs, " "))
}
