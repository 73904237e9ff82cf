package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/Kopuraj/SEM-Tracker/internal/dto"
	"github.com/Kopuraj/SEM-Tracker/internal/model"
	"github.com/Kopuraj/SEM-Tracker/internal/repository"
)

var ErrInvalidCalendar = errors.New("calendar file could not be parsed")

const icsProductID = "-//SEM-Tracker//Timetable//EN"

// CalendarService converts a timetable to and from iCalendar.
type CalendarService interface {
	// ExportICS returns the owner's timetable and a suggested file name.
	ExportICS(ctx context.Context, username string) ([]byte, string, error)
	// ImportICS creates an entry per importable event. Events that fail
	// validation or duplicate an existing entry are reported as skipped.
	ImportICS(ctx context.Context, reader io.Reader, username string) (*dto.ImportScheduleResponse, error)
}

type calendarService struct {
	repo      *repository.Repository
	timetable TimetableService
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewCalendarService creates a CalendarService.
func NewCalendarService(repo *repository.Repository, timetable TimetableService, loc *time.Location, logger *zap.Logger) CalendarService {
	if loc == nil {
		loc = time.Local
	}
	return &calendarService{
		repo:      repo,
		timetable: timetable,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// ════════════════════════════════════════════════════════════
// ExportICS
// ════════════════════════════════════════════════════════════
//
// Regular entries start on the first matching weekday on or after today
// and repeat with RRULE:FREQ=WEEKLY;BYDAY=<day>. Special entries are
// single events on their date.

func (s *calendarService) ExportICS(ctx context.Context, username string) ([]byte, string, error) {
	entries, err := s.repo.ScheduleEntry.List(ctx, repository.ScheduleEntryFilter{Username: username})
	if err != nil {
		return nil, "", fmt.Errorf("list schedule entries: %w", err)
	}

	now := s.now().In(s.loc)
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	for i := range entries {
		e := &entries[i]
		if e.StartTime == nil || e.EndTime == nil {
			continue
		}

		day, err := s.eventDay(e, now)
		if err != nil {
			s.logger.Warn("skip entry in ICS export", zap.String("entry_id", e.ScheduleEntryID), zap.Error(err))
			continue
		}

		event := cal.AddEvent(e.ScheduleEntryID + "@sem-tracker")
		event.SetDtStampTime(now)
		event.SetSummary(e.Title)
		event.SetStartAt(e.StartTime.On(day, s.loc))
		event.SetEndAt(e.EndTime.On(day, s.loc))
		if e.Location != "" {
			event.SetLocation(e.Location)
		}
		if desc := eventDescription(e); desc != "" {
			event.SetDescription(desc)
		}
		if !e.IsSpecialSchedule {
			event.AddProperty(ics.ComponentPropertyRrule, weeklyRule(day.Weekday()))
		}
	}

	filename := fmt.Sprintf("timetable_%s.ics", username)
	return []byte(cal.Serialize()), filename, nil
}

// eventDay is the date of the first occurrence of e.
func (s *calendarService) eventDay(e *model.ScheduleEntry, now time.Time) (time.Time, error) {
	if e.IsSpecialSchedule {
		return time.ParseInLocation(model.DateLayout, e.SpecialDateValue(), s.loc)
	}
	weekday, ok := model.ParseWeekday(e.DayValue())
	if !ok {
		return time.Time{}, ErrInvalidDay
	}
	offset := (int(weekday) - int(now.Weekday()) + 7) % 7
	return now.AddDate(0, 0, offset), nil
}

func weeklyRule(d time.Weekday) string {
	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{toRRuleWeekday(d)},
	}
	return opt.String()
}

func eventDescription(e *model.ScheduleEntry) string {
	parts := make([]string, 0, 2)
	if e.Lecturer != "" {
		parts = append(parts, "Lecturer: "+e.Lecturer)
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	return strings.Join(parts, "\n")
}

// ════════════════════════════════════════════════════════════
// ImportICS
// ════════════════════════════════════════════════════════════

func (s *calendarService) ImportICS(ctx context.Context, reader io.Reader, username string) (*dto.ImportScheduleResponse, error) {
	parsed, err := ParseICS(reader, s.loc)
	if err != nil {
		s.logger.Warn("ICS parse failed", zap.Error(err))
		if errors.Is(err, ErrInvalidCalendar) {
			return nil, err
		}
		return nil, ErrInvalidCalendar
	}

	resp := &dto.ImportScheduleResponse{
		Imported: make([]dto.ScheduleEntryResponse, 0, len(parsed.Requests)),
		Skipped:  append(make([]dto.SkippedEvent, 0, len(parsed.Skipped)), parsed.Skipped...),
	}

	for _, item := range parsed.Requests {
		req := item.Request
		created, err := s.timetable.Create(ctx, &req, username)
		if err != nil {
			if IsValidationError(err) {
				resp.Skipped = append(resp.Skipped, dto.SkippedEvent{Summary: item.Summary, Reason: err.Error()})
				continue
			}
			return nil, err
		}
		resp.Imported = append(resp.Imported, *created)
	}

	resp.ImportedCount = len(resp.Imported)
	resp.SkippedCount = len(resp.Skipped)

	s.logger.Info("ICS import finished",
		zap.String("username", username),
		zap.Int("imported", resp.ImportedCount),
		zap.Int("skipped", resp.SkippedCount))
	return resp, nil
}
