// Package query answers list requests: fetch a user's per-date records,
// optionally filter items by text, then merge, fill and paginate.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"agendacal/internal/agenda"
	"agendacal/internal/datekey"
	"agendacal/internal/model"
	"agendacal/internal/store"
)

// ErrInvalidParams is wrapped by every validation failure of Params.
var ErrInvalidParams = errors.New("invalid query parameters")

// MaxRangeDays caps how many days a filled list request may span.
const MaxRangeDays = 3660

// Mode selects which items a list query fetches.
type Mode string

const (
	ModeAll        Mode = "all"
	ModeUnfinished Mode = "unfinished"
)

// Params is one list request. Empty dates leave that side of the window
// open; only when both are given are missing days filled in.
type Params struct {
	UserID    string
	StartDate string
	EndDate   string
	Query     string
	Mode      Mode
	Page      int
	Limit     int
}

// Source is the persistence collaborator records are read from.
type Source interface {
	ListRecords(ctx context.Context, f store.Filter) ([]model.ScheduleRecord, error)
}

type Handler struct {
	src          Source
	defaultLimit int
}

// NewHandler returns a Handler reading from src. defaultLimit applies when a
// request gives no limit; values below 1 mean agenda.DefaultLimit.
func NewHandler(src Source, defaultLimit int) *Handler {
	if defaultLimit < 1 {
		defaultLimit = agenda.DefaultLimit
	}
	return &Handler{src: src, defaultLimit: defaultLimit}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
}

type window struct {
	start, end datekey.Key
}

func (p Params) validate() (window, error) {
	var w window
	if p.UserID == "" {
		return w, invalid("user id is required")
	}
	switch p.Mode {
	case "", ModeAll, ModeUnfinished:
	default:
		return w, invalid("unknown mode %q", p.Mode)
	}
	if p.Page < 0 {
		return w, invalid("page must be positive, got %d", p.Page)
	}
	if p.Limit < 0 {
		return w, invalid("limit must be positive, got %d", p.Limit)
	}
	var err error
	if p.StartDate != "" {
		if w.start, err = datekey.Parse(p.StartDate); err != nil {
			return w, invalid("startDate: %v", err)
		}
	}
	if p.EndDate != "" {
		if w.end, err = datekey.Parse(p.EndDate); err != nil {
			return w, invalid("endDate: %v", err)
		}
	}
	if w.start != "" && w.end != "" && datekey.DaysBetween(w.start, w.end)+1 > MaxRangeDays {
		return w, invalid("range %s..%s spans more than %d days", w.start, w.end, MaxRangeDays)
	}
	return w, nil
}

// List runs the full pipeline. A start after end surfaces as an
// *agenda.InvalidRangeError.
func (h *Handler) List(ctx context.Context, p Params) (agenda.Page, error) {
	w, err := p.validate()
	if err != nil {
		return agenda.Page{}, err
	}

	raw, err := h.fetch(ctx, p.UserID, w, p.Mode)
	if err != nil {
		return agenda.Page{}, err
	}
	raw = FilterText(raw, p.Query)

	merged := agenda.Merge(raw)
	if w.start != "" && w.end != "" {
		if merged, err = agenda.Fill(merged, w.start, w.end); err != nil {
			return agenda.Page{}, err
		}
	}

	limit := p.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}
	return agenda.Paginate(merged, p.Page, limit), nil
}

// Window fetches every item of userID within rng, one fetch per kind, for
// view building.
func (h *Handler) Window(ctx context.Context, userID string, rng datekey.Range) ([]model.ScheduleRecord, error) {
	return h.fetch(ctx, userID, window{start: rng.Start, end: rng.End}, ModeAll)
}

// fetch reads raw records. Mode all issues one request per kind
// concurrently and concatenates the answers in model.Kinds order; mode
// unfinished issues a single request for UNFINISHED items.
func (h *Handler) fetch(ctx context.Context, userID string, w window, mode Mode) ([]model.ScheduleRecord, error) {
	base := store.Filter{UserID: userID, Start: w.start, End: w.end}

	if mode == ModeUnfinished {
		base.Status = model.StatusUnfinished
		return h.src.ListRecords(ctx, base)
	}

	results := make([][]model.ScheduleRecord, len(model.Kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range model.Kinds {
		i, kind := i, kind
		f := base
		f.Kind = kind
		g.Go(func() error {
			recs, err := h.src.ListRecords(gctx, f)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", kind, err)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.ScheduleRecord
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, nil
}

// FilterText keeps items whose title or routine name contains q, ignoring
// case. Records left without items are dropped. An empty q returns recs
// unchanged.
func FilterText(recs []model.ScheduleRecord, q string) []model.ScheduleRecord {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return recs
	}
	out := make([]model.ScheduleRecord, 0, len(recs))
	for _, rec := range recs {
		var items []model.ScheduledItem
		for _, it := range rec.Items {
			if strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.RoutineName), q) {
				items = append(items, it)
			}
		}
		if len(items) == 0 {
			continue
		}
		rec.Items = items
		out = append(out, rec)
	}
	return out
}
