package view

import (
	"time"

	"agendacal/internal/agenda"
	"agendacal/internal/clock"
	"agendacal/internal/datekey"
	"agendacal/internal/model"
)

// Options tunes a Builder. Zero values pick the defaults.
type Options struct {
	// Location decides which calendar day "today" is. Nil means UTC.
	Location        *time.Location
	WeekStart       time.Weekday
	MaxMonthItems   int
	DefaultDuration int
}

// Builder turns an already-fetched window of records into day, week or
// month view structures.
type Builder struct {
	clock clock.Clock
	opts  Options
}

func NewBuilder(c clock.Clock, opts Options) *Builder {
	if c == nil {
		c = clock.Real()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxMonthItems <= 0 {
		opts.MaxMonthItems = DefaultMaxMonthItems
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = DefaultDurationMinutes
	}
	return &Builder{clock: c, opts: opts}
}

// DayView is the single-day timeline.
type DayView struct {
	DateKey     datekey.Key           `json:"date"`
	IsToday     bool                  `json:"isToday"`
	IsEmpty     bool                  `json:"isEmpty"`
	Hours       []model.HourSlot      `json:"hours"`
	AllDayItems []model.ScheduledItem `json:"allDayItems"`
	TimedItems  []model.ScheduledItem `json:"timedItems"`
	Steps       []model.ScheduledItem `json:"steps"`
	Sleep       []model.ScheduledItem `json:"sleep"`
}

// View is the response of Build. Exactly one of Day, Week, Month is set.
type View struct {
	Mode          datekey.Mode          `json:"mode"`
	Anchor        datekey.Key           `json:"anchor"`
	Today         datekey.Key           `json:"today"`
	Range         datekey.Range         `json:"range"`
	Navigation    datekey.Navigation    `json:"navigation"`
	WeekdayLabels []string              `json:"weekdayLabels"`
	Day           *DayView              `json:"day,omitempty"`
	Week          []WeekDay             `json:"week,omitempty"`
	Month         []model.MonthCell     `json:"month,omitempty"`
	Unfinished    []model.ScheduledItem `json:"unfinished"`
}

// Range returns the days a view of mode around anchor needs, so callers can
// fetch exactly that window.
func (b *Builder) Range(mode datekey.Mode, anchor datekey.Key) datekey.Range {
	return datekey.RangeFor(mode, anchor, b.opts.WeekStart)
}

// processedDay is a record with its items split by role.
type processedDay struct {
	key   datekey.Key
	items []model.ScheduledItem // tasks and routines
	steps []model.ScheduledItem
	sleep []model.ScheduledItem
}

func splitKinds(rec model.ScheduleRecord) processedDay {
	d := processedDay{
		key:   rec.DateKey,
		items: []model.ScheduledItem{},
		steps: []model.ScheduledItem{},
		sleep: []model.ScheduledItem{},
	}
	for _, it := range rec.Items {
		switch it.Kind {
		case model.KindStep:
			d.steps = append(d.steps, it)
		case model.KindSleep:
			d.sleep = append(d.sleep, it)
		default:
			d.items = append(d.items, it)
		}
	}
	return d
}

// Build produces the view for mode around anchor from records. Records may
// repeat dates and may extend past the view's range; they are merged and
// trimmed to the range, with empty days filled in. The clock is read once.
func (b *Builder) Build(mode datekey.Mode, anchor datekey.Key, records []model.ScheduleRecord) (View, error) {
	if _, err := datekey.Parse(string(anchor)); err != nil {
		return View{}, err
	}

	now := b.clock.Now().In(b.opts.Location)
	today := datekey.FromTime(now)
	rng := b.Range(mode, anchor)

	filled, err := agenda.Fill(agenda.Merge(records), rng.Start, rng.End)
	if err != nil {
		return View{}, err
	}
	days := make([]processedDay, len(filled))
	for i, rec := range filled {
		days[i] = splitKinds(rec)
	}

	v := View{
		Mode:          mode,
		Anchor:        anchor,
		Today:         today,
		Range:         rng,
		Navigation:    datekey.NavigationFor(mode, anchor, today, b.opts.WeekStart),
		WeekdayLabels: datekey.WeekdayLabels(b.opts.WeekStart),
		Unfinished:    collectUnfinished(days),
	}

	switch mode {
	case datekey.ModeWeek:
		v.Week = make([]WeekDay, 0, len(days))
		for _, d := range days {
			v.Week = append(v.Week, ProjectWeekDay(d.key, d.items, today, b.opts.DefaultDuration))
		}
	case datekey.ModeMonth:
		input := make([]MonthDay, 0, len(days))
		for _, d := range days {
			p := ProjectDay(d.items, NoCurrentHour)
			input = append(input, MonthDay{DateKey: d.key, AllDayItems: p.AllDay, TimedItems: p.Timed})
		}
		v.Month = ProjectMonth(input, anchor, b.opts.MaxMonthItems, today)
	default:
		v.Day = buildDay(days[0], today, now.Hour())
	}
	return v, nil
}

func buildDay(d processedDay, today datekey.Key, nowHour int) *DayView {
	currentHour := NoCurrentHour
	if d.key == today {
		currentHour = nowHour
	}
	p := ProjectDay(d.items, currentHour)
	return &DayView{
		DateKey:     d.key,
		IsToday:     d.key == today,
		IsEmpty:     len(p.AllDay) == 0 && len(p.Timed) == 0 && len(d.steps) == 0,
		Hours:       p.Hours,
		AllDayItems: p.AllDay,
		TimedItems:  p.Timed,
		Steps:       d.steps,
		Sleep:       d.sleep,
	}
}

// collectUnfinished gathers UNFINISHED tasks and routines across the window,
// keeping the first occurrence of each ID.
func collectUnfinished(days []processedDay) []model.ScheduledItem {
	out := []model.ScheduledItem{}
	seen := make(map[string]struct{})
	for _, d := range days {
		for _, it := range d.items {
			if it.Status != model.StatusUnfinished {
				continue
			}
			if _, dup := seen[it.ID]; dup {
				continue
			}
			seen[it.ID] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}
