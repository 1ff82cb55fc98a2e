package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "agendacal/internal/log"
)

const (
	icsUTCLayout   = "20060102T150405Z"
	icsLocalLayout = "20060102T150405"
	icsDateLayout  = "20060102"
)

// ParsedEvent is a VEVENT before recurrence expansion.
type ParsedEvent struct {
	Source Source
	UID    string

	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, set on overrides
	IsOverride bool
}

// ParseICS parses one feed body. Events that cannot be read are logged and
// skipped; only an unreadable calendar fails the feed.
func ParseICS(src Source, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.ID, err)
	}

	events := make([]ParsedEvent, 0)
	skipped := 0
	for _, comp := range cal.Events() {
		ev, err := parseVEvent(src, comp)
		if err != nil {
			skipped++
			appLog.Warn("ics vevent skipped", "id", src.ID, "reason", err)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parsed", "id", src.ID, "events", len(events), "skipped", skipped)
	return events, nil
}

func textProp(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}

func parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	ev := ParsedEvent{
		Source:      src,
		UID:         textProp(ve, ical.ComponentPropertyUniqueId),
		Summary:     textProp(ve, ical.ComponentPropertySummary),
		Description: textProp(ve, ical.ComponentPropertyDescription),
		Location:    textProp(ve, ical.ComponentPropertyLocation),
		RawRRule:    textProp(ve, ical.ComponentPropertyRrule),
	}
	if ev.UID == "" {
		return ev, errors.New("missing UID")
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, fmt.Errorf("uid %s: DTSTART: %w", ev.UID, err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		// No DTEND: zero-length event.
		end = start
	}
	ev.Start, ev.End = start, end

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		ev.AllDay = isDateValue(&p.BaseProperty)
	}
	if ev.AllDay && !ev.End.After(ev.Start) {
		ev.End = ev.Start.AddDate(0, 0, 1)
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := propTime(&p.BaseProperty, part); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := propTime(&p.BaseProperty, p.Value); err == nil {
			ev.Recurrence = &t
			ev.IsOverride = true
		}
	}
	return ev, nil
}

// isDateValue reports a DATE (not DATE-TIME) property.
func isDateValue(p *ical.BaseProperty) bool {
	if vs := p.ICalParameters["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// propTime parses one EXDATE / RECURRENCE-ID value, honouring the
// property's TZID. Floating values without TZID are read as local time.
func propTime(p *ical.BaseProperty, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	loc := time.Local
	if tz := p.ICalParameters["TZID"]; len(tz) > 0 {
		l, err := time.LoadLocation(tz[0])
		if err != nil {
			return time.Time{}, fmt.Errorf("TZID %q: %w", tz[0], err)
		}
		loc = l
	}

	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse(icsUTCLayout, v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation(icsLocalLayout, v, loc)
	default:
		return time.ParseInLocation(icsDateLayout, v, loc)
	}
}
