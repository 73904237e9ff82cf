package service

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Kopuraj/SEM-Tracker/internal/model"
)

// ── Timetable validation errors ──

var (
	ErrMissingSubject                = errors.New("subject is required")
	ErrMissingUsername               = errors.New("username is required")
	ErrMissingDay                    = errors.New("day is required for a regular schedule")
	ErrMissingTime                   = errors.New("start time and end time are required")
	ErrInvalidDate                   = errors.New("date must use the YYYY-MM-DD format")
	ErrInvalidDay                    = errors.New("day must be a weekday name")
	ErrInvalidTime                   = errors.New("time must use the HH:MM format")
	ErrInvalidTimeRange              = errors.New("end time must be after start time")
	ErrInvalidNotificationPreference = errors.New("notification preference must be NONE, EMAIL, PUSH or BOTH")
	ErrDuplicateSchedule             = errors.New("a schedule with the same subject and time already exists")
	ErrScheduleEntryNotFound         = errors.New("schedule entry not found")
	ErrInvalidDateRange              = errors.New("start date must not be after end date")
	ErrDateRangeTooLong              = errors.New("date range is too long")
	ErrFieldTooLong                  = errors.New("a field exceeds its maximum length")
	ErrForeignOwner                  = errors.New("username must match the authenticated user")
)

var validationErrors = []error{
	ErrMissingSubject, ErrMissingUsername, ErrMissingDay, ErrMissingTime,
	ErrInvalidDate, ErrInvalidDay, ErrInvalidTime, ErrInvalidTimeRange,
	ErrInvalidNotificationPreference, ErrDuplicateSchedule, ErrFieldTooLong,
}

// Column widths of schedule_entries, counted in characters.
const (
	maxTextLength        = 200
	maxUsernameLength    = 100
	maxDeviceTokenLength = 255
)

// IsValidationError reports whether err rejects a candidate entry, as opposed
// to a storage failure.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// MaxRangeDays caps the number of days ActiveBetween expands.
const MaxRangeDays = 93

const untitled = "Untitled"

// ════════════════════════════════════════════════════════════
// NormalizeScheduleEntry
// ════════════════════════════════════════════════════════════
//
// Runs the same pipeline for create and update:
//   1. default the title
//   2. special: derive day from the date; regular: canonical day, no date
//   3. both times present
//   4. end strictly after start
//   5. subject present
//   6. username present
//   7. notification preference defaulted and checked
//   8. text fields fit their columns
//
// The input is never modified; the first failing step wins.

func NormalizeScheduleEntry(candidate model.ScheduleEntry) (model.ScheduleEntry, error) {
	e := candidate
	e.Subject = strings.TrimSpace(e.Subject)
	e.Username = strings.TrimSpace(e.Username)
	e.DisplayDate = ""

	// 1
	if strings.TrimSpace(e.Title) == "" {
		e.Title = e.Subject
		if e.Title == "" {
			e.Title = untitled
		}
	}

	// 2
	if e.IsSpecialSchedule {
		date := strings.TrimSpace(e.SpecialDateValue())
		if date == "" {
			return model.ScheduleEntry{}, ErrInvalidDate
		}
		day, err := model.DateWeekday(date)
		if err != nil {
			return model.ScheduleEntry{}, ErrInvalidDate
		}
		e.SpecialDate = model.StringPtr(date)
		e.Day = model.StringPtr(day)
		e.IsWeekly = false
	} else {
		name := strings.TrimSpace(e.DayValue())
		if name == "" {
			return model.ScheduleEntry{}, ErrMissingDay
		}
		weekday, ok := model.ParseWeekday(name)
		if !ok {
			return model.ScheduleEntry{}, ErrInvalidDay
		}
		e.Day = model.StringPtr(model.WeekdayName(weekday))
		e.SpecialDate = nil
	}

	// 3
	if e.StartTime == nil || e.EndTime == nil {
		return model.ScheduleEntry{}, ErrMissingTime
	}
	// 4
	if !e.EndTime.After(*e.StartTime) {
		return model.ScheduleEntry{}, ErrInvalidTimeRange
	}
	// 5
	if e.Subject == "" {
		return model.ScheduleEntry{}, ErrMissingSubject
	}
	// 6
	if e.Username == "" {
		return model.ScheduleEntry{}, ErrMissingUsername
	}
	// 7
	pref := strings.ToUpper(strings.TrimSpace(e.NotificationPreference))
	switch pref {
	case "":
		pref = model.NotifyNone
	case model.NotifyNone, model.NotifyEmail, model.NotifyPush, model.NotifyBoth:
	default:
		return model.ScheduleEntry{}, ErrInvalidNotificationPreference
	}
	e.NotificationPreference = pref
	// 8
	if tooLong(maxTextLength, e.Subject, e.Title, e.Location, e.Lecturer) ||
		tooLong(maxUsernameLength, e.Username) ||
		tooLong(maxDeviceTokenLength, e.DeviceToken) {
		return model.ScheduleEntry{}, ErrFieldTooLong
	}

	return e, nil
}

func tooLong(limit int, values ...string) bool {
	for _, v := range values {
		if utf8.RuneCountInString(v) > limit {
			return true
		}
	}
	return false
}

// ScheduleEntryConflicts reports whether candidate collides with any entry in
// existing. The candidate itself (same non-empty ID) is skipped.
func ScheduleEntryConflicts(candidate model.ScheduleEntry, existing []model.ScheduleEntry) bool {
	for i := range existing {
		e := &existing[i]
		if candidate.ScheduleEntryID != "" && e.ScheduleEntryID == candidate.ScheduleEntryID {
			continue
		}
		if sameSlot(&candidate, e) {
			return true
		}
	}
	return false
}

func sameSlot(a, b *model.ScheduleEntry) bool {
	if a.IsSpecialSchedule != b.IsSpecialSchedule {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(a.Subject), strings.TrimSpace(b.Subject)) {
		return false
	}
	if !sameTime(a.StartTime, b.StartTime) || !sameTime(a.EndTime, b.EndTime) {
		return false
	}
	if a.IsSpecialSchedule {
		return a.SpecialDateValue() == b.SpecialDateValue()
	}
	return strings.EqualFold(strings.TrimSpace(a.DayValue()), strings.TrimSpace(b.DayValue()))
}

func sameTime(a, b *model.TimeOfDay) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ════════════════════════════════════════════════════════════
// Calendar merge
// ════════════════════════════════════════════════════════════

// ActiveOn returns the entries scheduled on date: regular entries matching the
// date's weekday, then special entries pinned to the date, each in input order.
func ActiveOn(date string, entries []model.ScheduleEntry) ([]model.ScheduleEntry, error) {
	day, err := model.DateWeekday(date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	result := make([]model.ScheduleEntry, 0)
	for _, e := range entries {
		if !e.IsSpecialSchedule && strings.EqualFold(e.DayValue(), day) {
			result = append(result, e)
		}
	}
	for _, e := range entries {
		if e.IsSpecialSchedule && e.SpecialDateValue() == date {
			result = append(result, e)
		}
	}
	return result, nil
}

// ActiveBetween concatenates ActiveOn for every date in [start, end].
// Regular results are copies stamped with the date they matched.
func ActiveBetween(start, end string, entries []model.ScheduleEntry) ([]model.ScheduleEntry, error) {
	from, err := model.ParseDate(start)
	if err != nil {
		return nil, ErrInvalidDate
	}
	to, err := model.ParseDate(end)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if from.After(to) {
		return nil, ErrInvalidDateRange
	}
	if int(to.Sub(from).Hours()/24)+1 > MaxRangeDays {
		return nil, ErrDateRangeTooLong
	}

	result := make([]model.ScheduleEntry, 0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		date := d.Format(model.DateLayout)
		active, err := ActiveOn(date, entries)
		if err != nil {
			return nil, err
		}
		for _, e := range active {
			if !e.IsSpecialSchedule {
				e.DisplayDate = date
			}
			result = append(result, e)
		}
	}
	return result, nil
}

// UpcomingBetween returns entries starting in [from, to) that are regular or
// pinned to today. An empty or inverted window matches nothing.
func UpcomingBetween(from, to model.TimeOfDay, today string, entries []model.ScheduleEntry) []model.ScheduleEntry {
	result := make([]model.ScheduleEntry, 0)
	if !from.Before(to) {
		return result
	}
	for _, e := range entries {
		if e.StartTime == nil {
			continue
		}
		if e.StartTime.Before(from) || !e.StartTime.Before(to) {
			continue
		}
		if e.IsSpecialSchedule && e.SpecialDateValue() != today {
			continue
		}
		result = append(result, e)
	}
	return result
}

// dateOffset formats day shifted by the given number of days.
func dateOffset(day time.Time, days int) string {
	return day.AddDate(0, 0, days).Format(model.DateLayout)
}
