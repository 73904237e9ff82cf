package service

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/Kopuraj/SEM-Tracker/internal/dto"
	"github.com/Kopuraj/SEM-Tracker/internal/model"
)

// ── ICS parser ──────────────────────────────────────────────
//
// Turns iCalendar (RFC 5545) content into create requests:
//   - a weekly RRULE yields one regular entry per BYDAY weekday, or the
//     DTSTART weekday when BYDAY is absent
//   - an event without RRULE yields a special entry on the DTSTART date
//   - all-day events, other frequencies and events crossing midnight are
//     reported as skipped
// ─────────────────────────────────────────────────────────────

const icsMaxFileSize = 5 * 1024 * 1024 // 5MB

var errCalendarTooLarge = fmt.Errorf("%w: file exceeds 5MB", ErrInvalidCalendar)

// parsedCalendar is the result of ParseICS.
type parsedCalendar struct {
	Requests []icsRequest
	Skipped  []dto.SkippedEvent
}

// icsRequest is a create request and the event summary it came from.
type icsRequest struct {
	Summary string
	Request dto.CreateScheduleEntryRequest
}

// ParseICS parses ICS content; event times are converted to loc.
func ParseICS(reader io.Reader, loc *time.Location) (*parsedCalendar, error) {
	data, err := io.ReadAll(io.LimitReader(reader, icsMaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}
	if len(data) > icsMaxFileSize {
		return nil, errCalendarTooLarge
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	out := &parsedCalendar{}
	for _, evt := range cal.Events() {
		reqs, reason := parseVEvent(evt, loc)
		if reason != "" {
			out.Skipped = append(out.Skipped, dto.SkippedEvent{Summary: eventText(evt, ics.ComponentPropertySummary), Reason: reason})
			continue
		}
		out.Requests = append(out.Requests, reqs...)
	}
	return out, nil
}

// parseVEvent returns the requests for one VEVENT, or the reason it was skipped.
func parseVEvent(evt *ics.VEvent, loc *time.Location) ([]icsRequest, string) {
	summary := eventText(evt, ics.ComponentPropertySummary)
	if summary == "" {
		return nil, "missing summary"
	}

	dtStart, allDay, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return nil, "invalid DTSTART"
	}
	if allDay {
		return nil, "all-day event"
	}
	dtEnd, _, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		return nil, "invalid DTEND"
	}
	if dtEnd.Format(model.DateLayout) != dtStart.Format(model.DateLayout) {
		return nil, "event spans midnight"
	}

	base := dto.CreateScheduleEntryRequest{
		Subject:     summary,
		Location:    eventText(evt, ics.ComponentPropertyLocation),
		Description: eventText(evt, ics.ComponentPropertyDescription),
		StartTime:   model.TimeOfDayOf(dtStart).String(),
		EndTime:     model.TimeOfDayOf(dtEnd).String(),
	}

	rruleProp := evt.GetProperty(ics.ComponentPropertyRrule)
	if rruleProp == nil {
		req := base
		req.IsSpecialSchedule = true
		req.SpecialDate = dtStart.Format(model.DateLayout)
		return []icsRequest{{Summary: summary, Request: req}}, ""
	}

	rule, err := rrule.StrToRRule(rruleProp.Value)
	if err != nil {
		return nil, "invalid RRULE"
	}
	if rule.OrigOptions.Freq != rrule.WEEKLY {
		return nil, "non-weekly recurrence"
	}

	days := make([]time.Weekday, 0, len(rule.OrigOptions.Byweekday))
	for _, wd := range rule.OrigOptions.Byweekday {
		days = append(days, fromRRuleWeekday(wd))
	}
	if len(days) == 0 {
		days = append(days, dtStart.Weekday())
	}

	reqs := make([]icsRequest, 0, len(days))
	for _, d := range days {
		req := base
		req.Day = model.WeekdayName(d)
		reqs = append(reqs, icsRequest{Summary: summary, Request: req})
	}
	return reqs, ""
}

// ── helpers ──

var rruleWeekdays = []rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

func toRRuleWeekday(d time.Weekday) rrule.Weekday {
	return rruleWeekdays[d]
}

// fromRRuleWeekday maps rrule's Monday-first numbering to time.Weekday.
func fromRRuleWeekday(wd rrule.Weekday) time.Weekday {
	return time.Weekday((wd.Day() + 1) % 7)
}

func eventText(evt *ics.VEvent, prop ics.ComponentProperty) string {
	p := evt.GetProperty(prop)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Value)
}

// parseICSDateTime reads a DATE or DATE-TIME property, honoring TZID.
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, bool, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, false, fmt.Errorf("missing property %s", propName)
	}
	val := strings.TrimSpace(prop.Value)

	if !strings.Contains(val, "T") {
		t, err := time.ParseInLocation("20060102", val, loc)
		return t, true, err
	}

	if strings.HasSuffix(val, "Z") {
		t, err := time.Parse("20060102T150405Z", val)
		if err != nil {
			return time.Time{}, false, err
		}
		return t.In(loc), false, nil
	}

	t, err := time.Parse("20060102T150405", val)
	if err != nil {
		return time.Time{}, false, err
	}
	src := loc
	if tzids, ok := prop.ICalParameters["TZID"]; ok && len(tzids) > 0 {
		if tzLoc, err := time.LoadLocation(tzids[0]); err == nil {
			src = tzLoc
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, src).In(loc), false, nil
}
